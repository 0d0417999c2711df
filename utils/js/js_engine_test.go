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
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/rulego/filterengine/api/types"
)

func newTestEngine(t *testing.T, opts ...types.Option) *GojaJsEngine {
	t.Helper()
	opts = append([]types.Option{types.WithLogger(types.NewZapLogger(zap.NewNop()))}, opts...)
	engine, err := NewGojaJsEngine(types.NewConfig(opts...))
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return engine
}

func evaluate(t *testing.T, engine *GojaJsEngine, source string) interface{} {
	t.Helper()
	var result interface{}
	err := engine.Do(func(ctx *JsContext) error {
		res, err := ctx.Evaluate("test.js", source)
		result = res.Export()
		return err
	})
	require.NoError(t, err)
	return result
}

func TestJsEngineGlobalsAndUdf(t *testing.T) {
	engine := newTestEngine(t,
		types.WithProperties(map[string]string{"name": "lala"}),
		types.WithUdf("add", func(a, b int) int {
			return a + b
		}),
		types.WithUdf("double", "function double(x) { return x * 2; }"),
	)
	var name string
	var sum, doubled int64
	err := engine.Do(func(ctx *JsContext) error {
		name = ctx.GetGlobalProperty(GlobalKey).GetProperty("name").AsString()
		res, err := ctx.Evaluate("udf.js", "add(1, 5)")
		if err != nil {
			return err
		}
		sum = res.AsInt()
		res, err = ctx.CallFunction("double", 21)
		if err != nil {
			return err
		}
		doubled = res.AsInt()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "lala", name)
	assert.Equal(t, int64(6), sum)
	assert.Equal(t, int64(42), doubled)
}

func TestJsEngineTriggerEventFromScript(t *testing.T) {
	engine := newTestEngine(t)
	received := make(chan []interface{}, 1)
	engine.SetEventCallback("probe", func(params JsValueList) {
		var exported []interface{}
		for _, p := range params {
			exported = append(exported, p.Export())
		}
		assert.True(t, params[2].IsNull())
		assert.True(t, params[3].IsFunction())
		received <- exported
	})
	assert.True(t, engine.HasEventCallback("probe"))

	evaluate(t, engine, `_triggerEvent("probe", 1, "a", null, function() {}); _triggerEvent("unknown", 2);`)

	select {
	case params := <-received:
		assert.Equal(t, int64(1), params[0])
		assert.Equal(t, "a", params[1])
		assert.Nil(t, params[2])
		assert.Len(t, params, 4)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	engine.RemoveEventCallback("probe")
	assert.False(t, engine.HasEventCallback("probe"))
	evaluate(t, engine, `_triggerEvent("probe")`)
	assert.Len(t, received, 0)
}

func TestJsEngineTriggerEventFromNative(t *testing.T) {
	engine := newTestEngine(t)
	var onLoop atomic.Bool
	done := make(chan struct{})
	engine.SetEventCallback("native", func(params JsValueList) {
		onLoop.Store(engine.IsOnLoop())
		close(done)
	})
	assert.False(t, engine.IsOnLoop())
	assert.True(t, engine.TriggerEvent("native"))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	assert.True(t, onLoop.Load())
}

func TestJsEngineCallbackPanicIsRecovered(t *testing.T) {
	engine := newTestEngine(t)
	engine.SetEventCallback("boom", func(params JsValueList) {
		panic("boom")
	})
	evaluate(t, engine, `_triggerEvent("boom"); var after = 1;`)
	var after int64
	require.NoError(t, engine.Do(func(ctx *JsContext) error {
		after = ctx.GetGlobalProperty("after").AsInt()
		return nil
	}))
	assert.Equal(t, int64(1), after)
}

func TestJsEngineLockHoldsTimers(t *testing.T) {
	engine := newTestEngine(t)
	var fired atomic.Int32
	engine.SetEventCallback("tick", func(params JsValueList) {
		fired.Add(1)
	})

	ctx, err := engine.Lock()
	require.NoError(t, err)
	_, err = ctx.Evaluate("timer.js", `setTimeout(function() { _triggerEvent("tick"); }, 0);`)
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	ctx.Close()
	ctx.Close()

	assert.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestJsEngineLockIsReentrantOnLoop(t *testing.T) {
	engine := newTestEngine(t)
	result := make(chan string, 1)
	engine.SetEventCallback("reenter", func(params JsValueList) {
		err := engine.Do(func(ctx *JsContext) error {
			obj := ctx.NewObject()
			if err := obj.SetProperty("key", "value"); err != nil {
				return err
			}
			result <- obj.GetProperty("key").AsString()
			return nil
		})
		assert.NoError(t, err)
	})
	evaluate(t, engine, `_triggerEvent("reenter")`)
	assert.Equal(t, "value", <-result)
}

func TestJsEngineEvaluateErrors(t *testing.T) {
	engine := newTestEngine(t, types.WithScriptMaxExecutionTime(100*time.Millisecond))
	err := engine.Do(func(ctx *JsContext) error {
		_, err := ctx.Evaluate("syntax.js", "function (")
		return err
	})
	assert.NotNil(t, err)

	err = engine.Do(func(ctx *JsContext) error {
		_, err := ctx.Evaluate("loop.js", "while (true) {}")
		return err
	})
	assert.NotNil(t, err)

	// the interrupt is cleared, the VM is still usable
	res := evaluate(t, engine, "1 + 1")
	assert.Equal(t, int64(2), res)

	err = engine.Do(func(ctx *JsContext) error {
		_, err := ctx.CallFunction("API.missing")
		return err
	})
	assert.True(t, errors.Is(err, ErrNotAFunction))
}

func TestJsEngineSchedule(t *testing.T) {
	engine := newTestEngine(t)
	done := make(chan bool, 1)
	assert.True(t, engine.Schedule(func() {
		done <- engine.IsOnLoop()
	}))
	assert.True(t, <-done)
}

func TestWeakValues(t *testing.T) {
	engine := newTestEngine(t)
	var weak *WeakValues
	engine.SetEventCallback("keep", func(params JsValueList) {
		weak = engine.NewWeakValues(params[0])
	})
	evaluate(t, engine, `var calls = []; _triggerEvent("keep", function(v) { calls.push(v); });`)
	require.NotNil(t, weak)
	assert.False(t, weak.IsExpired())
	assert.Equal(t, 1, engine.WeakValuesCount())

	for i := 0; i < 2; i++ {
		weak.Post(func(values JsValueList) {
			_, err := values[0].Call(true)
			assert.NoError(t, err)
		})
	}
	assert.Eventually(t, func() bool {
		return weak.IsExpired()
	}, time.Second, 5*time.Millisecond)
	res := evaluate(t, engine, `calls.length`)
	assert.Equal(t, int64(1), res)
	assert.Equal(t, 0, engine.WeakValuesCount())
}

func TestWeakValuesRelease(t *testing.T) {
	engine := newTestEngine(t)
	var weak *WeakValues
	require.NoError(t, engine.Do(func(ctx *JsContext) error {
		weak = engine.NewWeakValues(ctx.NewObject())
		return nil
	}))
	weak.Release()
	assert.True(t, weak.IsExpired())
	called := false
	weak.Post(func(values JsValueList) {
		called = true
	})
	evaluate(t, engine, "0")
	assert.False(t, called)
}

func TestJsEngineClose(t *testing.T) {
	defer goleak.VerifyNone(t)
	engine, err := NewGojaJsEngine(types.NewConfig(types.WithLogger(types.NewZapLogger(zap.NewNop()))))
	require.NoError(t, err)

	var weak *WeakValues
	require.NoError(t, engine.Do(func(ctx *JsContext) error {
		weak = engine.NewWeakValues(ctx.NewObject())
		return nil
	}))
	engine.SetEventCallback("any", func(params JsValueList) {})

	engine.Close()
	engine.Close()

	assert.True(t, engine.IsClosed())
	assert.True(t, weak.IsExpired())
	assert.False(t, weak.Post(func(values JsValueList) {
		t.Fatal("must not be called")
	}))
	assert.False(t, engine.HasEventCallback("any"))
	assert.False(t, engine.Schedule(func() {}))
	_, err = engine.Lock()
	assert.Equal(t, ErrEngineClosed, err)
}
