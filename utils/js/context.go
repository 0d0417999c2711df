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
	"strings"
	"sync"

	"github.com/dop251/goja"
)

// JsContext is a held critical section over the VM. Close must be called exactly
// once the caller is done; until then no other script code runs.
type JsContext struct {
	engine *GojaJsEngine
	vm     *goja.Runtime
	// release is nil for a context entered on the loop goroutine.
	release chan struct{}
	once    sync.Once
}

// Close leaves the critical section.
func (c *JsContext) Close() {
	c.once.Do(func() {
		if c.release != nil {
			c.engine.holderGoroutine.Store(0)
			close(c.release)
		}
	})
}

// NewObject creates an empty script object.
func (c *JsContext) NewObject() JsValue {
	return newJsValue(c.vm, c.vm.NewObject())
}

// NewValue converts a Go value to a script value.
func (c *JsContext) NewValue(v interface{}) JsValue {
	if jsValue, ok := v.(JsValue); ok {
		return jsValue
	}
	return newJsValue(c.vm, c.vm.ToValue(v))
}

// NewCallback wraps a native function as a script function.
func (c *JsContext) NewCallback(fn func(params JsValueList) JsValue) JsValue {
	vm := c.vm
	return newJsValue(vm, vm.ToValue(func(call goja.FunctionCall) goja.Value {
		params := make(JsValueList, len(call.Arguments))
		for i, arg := range call.Arguments {
			params[i] = newJsValue(vm, arg)
		}
		res := fn(params)
		if res.value == nil {
			return goja.Undefined()
		}
		return res.value
	}))
}

// SetGlobalProperty publishes value under name on the global object.
func (c *JsContext) SetGlobalProperty(name string, value JsValue) error {
	return c.vm.Set(name, value.value)
}

// GetGlobalProperty returns the global name, undefined if absent.
func (c *JsContext) GetGlobalProperty(name string) JsValue {
	v := c.vm.Get(name)
	if v == nil {
		v = goja.Undefined()
	}
	return newJsValue(c.vm, v)
}

// Evaluate compiles and runs source, bounded by ScriptMaxExecutionTime.
func (c *JsContext) Evaluate(filename, source string) (JsValue, error) {
	program, err := goja.Compile(filename, source, false)
	if err != nil {
		return JsValue{}, fmt.Errorf("compile %s: %w", filename, err)
	}
	timer := c.engine.startTimeout(c.vm)
	res, err := c.vm.RunProgram(program)
	c.engine.stopTimeout(c.vm, timer)
	if err != nil {
		return JsValue{}, fmt.Errorf("evaluate %s: %w", filename, err)
	}
	return newJsValue(c.vm, res), nil
}

// CallFunction calls the global function at the dotted path, e.g. "API.getPref".
// Go arguments are converted with the VM, JsValue arguments are passed as is.
func (c *JsContext) CallFunction(path string, argumentList ...interface{}) (out JsValue, err error) {
	defer func() {
		if caught := recover(); caught != nil {
			err = fmt.Errorf("%s: %v", path, caught)
		}
	}()
	var this goja.Value = goja.Undefined()
	var target goja.Value = c.vm.GlobalObject()
	for _, name := range strings.Split(path, ".") {
		obj, ok := target.(*goja.Object)
		if !ok {
			return JsValue{}, fmt.Errorf("%s: %w", path, ErrNotAFunction)
		}
		this = obj
		target = obj.Get(name)
		if target == nil {
			return JsValue{}, fmt.Errorf("%s: %w", path, ErrNotAFunction)
		}
	}
	f, ok := goja.AssertFunction(target)
	if !ok {
		return JsValue{}, fmt.Errorf("%s: %w", path, ErrNotAFunction)
	}
	var params []goja.Value
	if len(argumentList) > 0 {
		params = make([]goja.Value, len(argumentList))
		for i, v := range argumentList {
			params[i] = c.NewValue(v).value
		}
	}
	timer := c.engine.startTimeout(c.vm)
	res, err := f(this, params...)
	c.engine.stopTimeout(c.vm, timer)
	if err != nil {
		return JsValue{}, err
	}
	return newJsValue(c.vm, res), nil
}
