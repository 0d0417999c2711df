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

// Package types holds the configuration and shared interfaces of the filter engine.
package types

// Pool is a coroutine pool.
// Pool 协程池
type Pool interface {
	// Submit submits a task to the pool. An error is returned if the pool is full.
	Submit(task func()) error
	// Release stops the pool.
	Release()
}

// Properties global key-value properties exposed to scripts.
type Properties map[string]string

func NewProperties() Properties {
	return make(Properties)
}

func (p Properties) PutValue(key, value string) {
	p[key] = value
}

func (p Properties) GetValue(key string) string {
	return p[key]
}

// Values returns a copy of the properties.
func (p Properties) Values() map[string]string {
	values := make(map[string]string, len(p))
	for k, v := range p {
		values[k] = v
	}
	return values
}

// Go submits fn to pool, falling back to a plain goroutine when pool is nil or rejects the task.
func Go(pool Pool, fn func()) {
	if pool != nil {
		if err := pool.Submit(fn); err == nil {
			return
		}
	}
	go fn()
}
