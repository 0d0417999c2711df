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
	"weak"
)

// WeakValues references script values held in the engine's table.
// The handle keeps neither the values nor the engine alive: the values die
// with the engine (Close or garbage collection), and the entry is consumed
// by the first Post.
type WeakValues struct {
	engine weak.Pointer[GojaJsEngine]
	id     uint64
}

func newWeakValues(engine *GojaJsEngine, id uint64) *WeakValues {
	return &WeakValues{engine: weak.Make(engine), id: id}
}

// Post schedules fn onto the loop with the referenced values. fn is not
// called if the engine is gone, closed, or the values were already taken.
// It returns whether the job was queued; safe to call from any goroutine.
func (w *WeakValues) Post(fn func(values JsValueList)) bool {
	engine := w.engine.Value()
	if engine == nil {
		return false
	}
	id := w.id
	return engine.Schedule(func() {
		if values, ok := engine.takeWeakValues(id); ok {
			fn(values)
		}
	})
}

// Release drops the referenced values without using them.
func (w *WeakValues) Release() {
	if engine := w.engine.Value(); engine != nil {
		engine.releaseWeakValues(w.id)
	}
}

// IsExpired reports whether the values can no longer be resolved.
func (w *WeakValues) IsExpired() bool {
	engine := w.engine.Value()
	if engine == nil || engine.IsClosed() {
		return true
	}
	engine.mu.Lock()
	defer engine.mu.Unlock()
	_, ok := engine.weakValues[w.id]
	return !ok
}
