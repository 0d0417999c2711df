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

	"github.com/dop251/goja"
)

// JsValue is a script value together with the VM it belongs to.
// It must only be used on the loop goroutine or while a JsContext is held.
type JsValue struct {
	vm    *goja.Runtime
	value goja.Value
}

// JsValueList the argument list of an event or a call.
type JsValueList []JsValue

func newJsValue(vm *goja.Runtime, value goja.Value) JsValue {
	return JsValue{vm: vm, value: value}
}

func (v JsValue) IsUndefined() bool {
	return v.value == nil || goja.IsUndefined(v.value)
}

func (v JsValue) IsNull() bool {
	return v.value != nil && goja.IsNull(v.value)
}

func (v JsValue) IsString() bool {
	return v.value != nil && goja.IsString(v.value)
}

func (v JsValue) IsFunction() bool {
	if v.value == nil {
		return false
	}
	_, ok := goja.AssertFunction(v.value)
	return ok
}

// AsString converts the value to a string following JavaScript rules.
func (v JsValue) AsString() string {
	if v.IsUndefined() {
		return ""
	}
	return v.value.String()
}

func (v JsValue) AsBool() bool {
	if v.value == nil {
		return false
	}
	return v.value.ToBoolean()
}

func (v JsValue) AsInt() int64 {
	if v.value == nil {
		return 0
	}
	return v.value.ToInteger()
}

// GetProperty returns the property name of an object value, undefined otherwise.
func (v JsValue) GetProperty(name string) JsValue {
	obj, ok := v.value.(*goja.Object)
	if !ok {
		return newJsValue(v.vm, goja.Undefined())
	}
	return newJsValue(v.vm, obj.Get(name))
}

// SetProperty sets a property on an object value. value may be a JsValue or any Go value.
func (v JsValue) SetProperty(name string, value interface{}) error {
	obj, ok := v.value.(*goja.Object)
	if !ok {
		return fmt.Errorf("set property %s: value is not an object", name)
	}
	if jsValue, ok := value.(JsValue); ok {
		return obj.Set(name, jsValue.value)
	}
	return obj.Set(name, value)
}

// Call invokes a function value with this=undefined. JsValue arguments are
// passed as is, other Go values are converted with the VM.
func (v JsValue) Call(args ...interface{}) (JsValue, error) {
	fn, ok := goja.AssertFunction(v.value)
	if !ok {
		return JsValue{}, ErrNotAFunction
	}
	params := make([]goja.Value, len(args))
	for i, arg := range args {
		if jsValue, ok := arg.(JsValue); ok {
			params[i] = jsValue.value
		} else {
			params[i] = v.vm.ToValue(arg)
		}
	}
	res, err := fn(goja.Undefined(), params...)
	if err != nil {
		return JsValue{}, err
	}
	return newJsValue(v.vm, res), nil
}

// Export converts the value to a plain Go value.
func (v JsValue) Export() interface{} {
	if v.value == nil {
		return nil
	}
	return v.value.Export()
}

func (v JsValue) String() string {
	return v.AsString()
}
