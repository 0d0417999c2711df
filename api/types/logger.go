/*
 * Copyright 2026 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"log"

	"go.uber.org/zap"
)

type Logger interface {
	Printf(format string, v ...interface{})
}

// this is a safeguard, breaking on compile time in case
// `log.Logger` does not adhere to our `Logger` interface.
// see https://golang.org/doc/faq#guarantee_satisfies_interface
var _ Logger = &log.Logger{}

// DefaultLogger returns a `Logger` implementation backed by a production zap logger.
func DefaultLogger() *log.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return zap.NewStdLog(l)
}

// NewZapLogger adapts a zap logger to the `Logger` interface.
// Every Printf call is written at info level.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		return DefaultLogger()
	}
	return zapLogger{sugar: l.Sugar()}
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (z zapLogger) Printf(format string, v ...interface{}) {
	z.sugar.Infof(format, v...)
}

func NewLogger(custom Logger) Logger {
	if custom != nil {
		return custom
	}

	return DefaultLogger()
}
