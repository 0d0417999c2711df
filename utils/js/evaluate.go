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

package js

import (
	"fmt"
	"path"

	"github.com/rulego/filterengine/utils/fs"
)

// EvaluateCallback loads and evaluates the engine script filename inside the held context.
type EvaluateCallback func(ctx *JsContext, filename string) error

// NewFileEvaluator evaluates scripts read from dir of storage.
func NewFileEvaluator(storage fs.File, dir string) EvaluateCallback {
	if storage == nil {
		storage = fs.DefaultFile
	}
	return func(ctx *JsContext, filename string) error {
		source, err := storage.Get(path.Join(dir, filename))
		if err != nil {
			return fmt.Errorf("load script %s from %s: %w", filename, storage.Name(), err)
		}
		_, err = ctx.Evaluate(filename, string(source))
		return err
	}
}

// NewMapEvaluator evaluates scripts from an in-memory filename to source map.
func NewMapEvaluator(sources map[string]string) EvaluateCallback {
	return func(ctx *JsContext, filename string) error {
		source, ok := sources[filename]
		if !ok {
			return fmt.Errorf("load script %s: not found", filename)
		}
		_, err := ctx.Evaluate(filename, source)
		return err
	}
}
