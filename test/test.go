/*
 * Copyright 2023 The RuleGo Authors.
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

// Package test provides helpers shared by the filter engine tests.
package test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rulego/filterengine/api/types"
	"github.com/rulego/filterengine/utils/fs"
	"github.com/rulego/filterengine/utils/js"
)

const testdataFolder = "./testdata/"

// NewConfig returns a config logging to a no-op zap logger.
func NewConfig(opts ...types.Option) types.Config {
	opts = append([]types.Option{types.WithLogger(types.NewZapLogger(zap.NewNop()))}, opts...)
	return types.NewConfig(opts...)
}

// NewJsEngine starts a script runtime closed with the test.
func NewJsEngine(t *testing.T, opts ...types.Option) *js.GojaJsEngine {
	t.Helper()
	engine, err := js.NewGojaJsEngine(NewConfig(opts...))
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return engine
}

// Evaluate runs source in the engine and returns its exported result.
func Evaluate(t *testing.T, engine *js.GojaJsEngine, source string) interface{} {
	t.Helper()
	var result interface{}
	err := engine.Do(func(ctx *js.JsContext) error {
		res, err := ctx.Evaluate("test.js", source)
		result = res.Export()
		return err
	})
	require.NoError(t, err)
	return result
}

// TestdataEvaluator evaluates the scripts of the testdata folder of the calling package.
func TestdataEvaluator() js.EvaluateCallback {
	return js.NewFileEvaluator(fs.DefaultFile, testdataFolder)
}

// RecordingEvaluator records the file names requested from the wrapped evaluator.
type RecordingEvaluator struct {
	evaluate js.EvaluateCallback
	mu       sync.Mutex
	files    []string
}

// NewRecordingEvaluator wraps evaluate. A nil evaluate records without evaluating.
func NewRecordingEvaluator(evaluate js.EvaluateCallback) *RecordingEvaluator {
	return &RecordingEvaluator{evaluate: evaluate}
}

// Evaluate is the js.EvaluateCallback.
func (r *RecordingEvaluator) Evaluate(ctx *js.JsContext, filename string) error {
	r.mu.Lock()
	r.files = append(r.files, filename)
	r.mu.Unlock()
	if r.evaluate == nil {
		return nil
	}
	return r.evaluate(ctx, filename)
}

// Files returns the requested file names in request order.
func (r *RecordingEvaluator) Files() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.files...)
}
