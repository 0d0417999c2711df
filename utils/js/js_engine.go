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

// Package js provides the event-driven JavaScript runtime the filter engine scripts run in.
//
// The runtime is a single goja VM owned by a goja_nodejs event loop. Every
// script callback (timers, events, scheduled native work) runs on the loop
// goroutine, one at a time. Native code reaches the VM in two ways:
//
//   - Lock: a scoped critical section. The loop is parked inside a job until
//     the returned JsContext is closed, so no timer or event fires meanwhile.
//   - Schedule: queue a function onto the loop without waiting for it.
//
// Scripts talk to native code through the `_triggerEvent(name, ...args)`
// global; native code registers one EventCallback per event name.
//
// Key components:
// - GojaJsEngine: the runtime, its event callback registry and weak value table.
// - JsContext: the handle of a held critical section.
// - JsValue: a typed view of a script value.
// - WeakValues: script values referenced from native code without keeping them alive.
package js

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"

	"github.com/rulego/filterengine/api/types"
	"github.com/rulego/filterengine/utils/runtime"
)

const (
	//GlobalKey  global properties key,call them through the global.xx method
	GlobalKey = "global"
	// TriggerEventKey is the global function scripts use to fire native events.
	TriggerEventKey = "_triggerEvent"
)

var (
	// ErrEngineClosed is returned when the engine has been torn down.
	ErrEngineClosed = errors.New("js engine is closed")
	// ErrNotAFunction is returned when a called value is not callable.
	ErrNotAFunction = errors.New("not a function")
)

// EventCallback handles an event fired by a script. It runs on the loop goroutine.
type EventCallback func(params JsValueList)

// GojaJsEngine goja js engine driven by an event loop
// GojaJsEngine 由事件循环驱动的 goja js 引擎
type GojaJsEngine struct {
	config types.Config
	loop   *eventloop.EventLoop
	// vm is only touched on the loop goroutine or while a JsContext is held.
	vm *goja.Runtime
	// loopGoroutine is the id of the goroutine the loop runs its jobs on.
	loopGoroutine atomic.Int64
	// holderGoroutine is the id of the goroutine holding a JsContext, 0 if none.
	holderGoroutine atomic.Int64

	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once

	mu         sync.Mutex
	callbacks  map[string]EventCallback
	weakValues map[uint64][]goja.Value
	nextWeakID uint64
}

// NewGojaJsEngine Create a new instance of the JavaScript engine and start its event loop.
func NewGojaJsEngine(config types.Config) (*GojaJsEngine, error) {
	if config.Logger == nil {
		config.Logger = types.DefaultLogger()
	}
	registry := require.NewRegistry()
	registry.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(consolePrinter{logger: config.Logger}))

	g := &GojaJsEngine{
		config:     config,
		loop:       eventloop.NewEventLoop(eventloop.WithRegistry(registry)),
		done:       make(chan struct{}),
		callbacks:  make(map[string]EventCallback),
		weakValues: make(map[uint64][]goja.Value),
	}
	g.loop.Start()

	ready := make(chan error, 1)
	g.loop.RunOnLoop(func(vm *goja.Runtime) {
		g.loopGoroutine.Store(runtime.GoroutineID())
		ready <- g.setup(vm)
	})
	if err := <-ready; err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

// setup runs on the loop before any other job.
func (g *GojaJsEngine) setup(vm *goja.Runtime) (err error) {
	defer func() {
		if caught := recover(); caught != nil {
			err = fmt.Errorf("js vm setup error: %v", caught)
		}
	}()
	g.vm = vm
	if err = vm.Set(TriggerEventKey, g.triggerEventFromScript); err != nil {
		return err
	}
	if len(g.config.Properties) != 0 {
		if err = vm.Set(GlobalKey, g.config.Properties.Values()); err != nil {
			return fmt.Errorf("set global properties error: %w", err)
		}
	}
	for k, v := range g.config.Udf {
		if jsFuncStr, ok := v.(string); ok {
			timer := g.startTimeout(vm)
			_, err = vm.RunScript(k, jsFuncStr)
			g.stopTimeout(vm, timer)
		} else {
			err = vm.Set(k, v)
		}
		if err != nil {
			return fmt.Errorf("parse js script=%s error: %w", k, err)
		}
	}
	return nil
}

// Config returns the engine configuration.
func (g *GojaJsEngine) Config() types.Config {
	return g.config
}

// SetEventCallback registers the callback of eventName, replacing any previous one.
func (g *GojaJsEngine) SetEventCallback(eventName string, callback EventCallback) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed.Load() {
		return
	}
	g.callbacks[eventName] = callback
}

// RemoveEventCallback removes the callback of eventName. Events fired afterwards are ignored.
func (g *GojaJsEngine) RemoveEventCallback(eventName string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.callbacks, eventName)
}

// HasEventCallback reports whether a callback is registered for eventName.
func (g *GojaJsEngine) HasEventCallback(eventName string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.callbacks[eventName]
	return ok
}

// TriggerEvent fires eventName from native code. The callback runs synchronously
// when the caller already owns the VM, otherwise it is scheduled onto the loop.
func (g *GojaJsEngine) TriggerEvent(eventName string, params ...JsValue) bool {
	if g.ownsVM() {
		g.dispatch(eventName, params)
		return true
	}
	return g.Schedule(func() {
		g.dispatch(eventName, params)
	})
}

func (g *GojaJsEngine) triggerEventFromScript(call goja.FunctionCall) goja.Value {
	if len(call.Arguments) == 0 {
		panic(g.vm.NewTypeError("%s expects an event name", TriggerEventKey))
	}
	eventName := call.Argument(0).String()
	params := make(JsValueList, 0, len(call.Arguments)-1)
	for _, arg := range call.Arguments[1:] {
		params = append(params, newJsValue(g.vm, arg))
	}
	g.dispatch(eventName, params)
	return goja.Undefined()
}

func (g *GojaJsEngine) dispatch(eventName string, params JsValueList) {
	g.mu.Lock()
	callback, ok := g.callbacks[eventName]
	g.mu.Unlock()
	if !ok {
		return
	}
	defer func() {
		if caught := recover(); caught != nil {
			g.config.Logger.Printf("event callback %s panic: %v\n%s", eventName, caught, runtime.Stack())
		}
	}()
	callback(params)
}

// IsOnLoop reports whether the caller runs on the loop goroutine.
func (g *GojaJsEngine) IsOnLoop() bool {
	id := g.loopGoroutine.Load()
	return id != 0 && id == runtime.GoroutineID()
}

// ownsVM reports whether the caller runs on the loop or holds the critical section.
func (g *GojaJsEngine) ownsVM() bool {
	id := runtime.GoroutineID()
	if id == 0 {
		return false
	}
	return id == g.loopGoroutine.Load() || id == g.holderGoroutine.Load()
}

// Lock enters the scoped critical section. Until the returned context is closed
// the loop executes nothing else. Calling Lock from the loop goroutine, or from
// the goroutine already holding a context, returns a nested context over the
// already exclusive VM.
func (g *GojaJsEngine) Lock() (*JsContext, error) {
	if g.closed.Load() {
		return nil, ErrEngineClosed
	}
	if g.ownsVM() {
		return &JsContext{engine: g, vm: g.vm}, nil
	}
	acquired := make(chan struct{})
	release := make(chan struct{})
	queued := g.loop.RunOnLoop(func(*goja.Runtime) {
		close(acquired)
		<-release
	})
	if !queued {
		return nil, ErrEngineClosed
	}
	select {
	case <-acquired:
		g.holderGoroutine.Store(runtime.GoroutineID())
		return &JsContext{engine: g, vm: g.vm, release: release}, nil
	case <-g.done:
		close(release)
		return nil, ErrEngineClosed
	}
}

// Do runs fn inside the critical section.
func (g *GojaJsEngine) Do(fn func(ctx *JsContext) error) (err error) {
	ctx, err := g.Lock()
	if err != nil {
		return err
	}
	defer ctx.Close()
	defer func() {
		if caught := recover(); caught != nil {
			err = fmt.Errorf("%v", caught)
		}
	}()
	return fn(ctx)
}

// Schedule queues fn onto the loop. It is safe to call from any goroutine.
// It returns false if the engine is closed.
func (g *GojaJsEngine) Schedule(fn func()) bool {
	if g.closed.Load() {
		return false
	}
	return g.loop.RunOnLoop(func(*goja.Runtime) {
		if g.closed.Load() {
			return
		}
		defer func() {
			if caught := recover(); caught != nil {
				g.config.Logger.Printf("scheduled js job panic: %v\n%s", caught, runtime.Stack())
			}
		}()
		fn()
	})
}

// NewWeakValues stores values in the engine's table and returns a handle that
// does not keep the engine alive.
func (g *GojaJsEngine) NewWeakValues(values ...JsValue) *WeakValues {
	raw := make([]goja.Value, len(values))
	for i, v := range values {
		raw[i] = v.value
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextWeakID++
	id := g.nextWeakID
	if !g.closed.Load() {
		g.weakValues[id] = raw
	}
	return newWeakValues(g, id)
}

// takeWeakValues removes and returns the entry id.
func (g *GojaJsEngine) takeWeakValues(id uint64) (JsValueList, bool) {
	g.mu.Lock()
	raw, ok := g.weakValues[id]
	delete(g.weakValues, id)
	g.mu.Unlock()
	if !ok {
		return nil, false
	}
	values := make(JsValueList, len(raw))
	for i, v := range raw {
		values[i] = newJsValue(g.vm, v)
	}
	return values, true
}

func (g *GojaJsEngine) releaseWeakValues(id uint64) {
	g.mu.Lock()
	delete(g.weakValues, id)
	g.mu.Unlock()
}

// WeakValuesCount returns the number of live weak entries.
func (g *GojaJsEngine) WeakValuesCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.weakValues)
}

// IsClosed reports whether Close has been called.
func (g *GojaJsEngine) IsClosed() bool {
	return g.closed.Load()
}

// Close tears the script context down: weak values expire, callbacks are
// dropped and the loop stops.
func (g *GojaJsEngine) Close() {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		g.closed.Store(true)
		g.callbacks = make(map[string]EventCallback)
		g.weakValues = make(map[uint64][]goja.Value)
		g.mu.Unlock()
		close(g.done)
		if g.ownsVM() {
			g.loop.StopNoWait()
		} else {
			g.loop.Stop()
		}
	})
}

// startTimeout starts a timeout for JS script execution using time.AfterFunc
// Returns nil if timeout is not configured
func (g *GojaJsEngine) startTimeout(vm *goja.Runtime) *time.Timer {
	if g.config.ScriptMaxExecutionTime <= 0 {
		return nil
	}
	return time.AfterFunc(g.config.ScriptMaxExecutionTime, func() {
		vm.Interrupt("execution timeout")
	})
}

// stopTimeout stops the timeout timer and clears a fired interrupt so the VM stays usable.
func (g *GojaJsEngine) stopTimeout(vm *goja.Runtime, timer *time.Timer) {
	if timer != nil {
		timer.Stop()
		vm.ClearInterrupt()
	}
}

type consolePrinter struct {
	logger types.Logger
}

func (p consolePrinter) Log(s string) {
	p.logger.Printf("[js] %s", s)
}

func (p consolePrinter) Warn(s string) {
	p.logger.Printf("[js] WARN %s", s)
}

func (p consolePrinter) Error(s string) {
	p.logger.Printf("[js] ERROR %s", s)
}
