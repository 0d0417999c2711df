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

package engine

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/filterengine/test"
	"github.com/rulego/filterengine/utils/js"
)

func TestPermissionDefaultAllow(t *testing.T) {
	jsEngine := test.NewJsEngine(t)
	registerSubscriptionDownloadAllowedCallback(jsEngine, nil)

	// the response is sent synchronously, within the same evaluation
	res := test.Evaluate(t, jsEngine, `
var responses = [];
_triggerEvent("_isSubscriptionDownloadAllowed", null, function(allowed) { responses.push(allowed); });
responses;`)
	assert.Equal(t, []interface{}{true}, res)
}

func TestPermissionPredicateDelegation(t *testing.T) {
	jsEngine := test.NewJsEngine(t)
	var (
		mu             sync.Mutex
		connectionType *string
		done           func(bool)
	)
	registerSubscriptionDownloadAllowedCallback(jsEngine, func(allowedConnectionType *string, d func(allowed bool)) {
		mu.Lock()
		defer mu.Unlock()
		connectionType = allowedConnectionType
		done = d
	})

	test.Evaluate(t, jsEngine, `
var responses = [];
_triggerEvent("_isSubscriptionDownloadAllowed", "wifi", function(allowed) { responses.push(allowed); });`)

	mu.Lock()
	require.NotNil(t, done)
	require.NotNil(t, connectionType)
	assert.Equal(t, "wifi", *connectionType)
	d := done
	mu.Unlock()

	// the predicate resolves on a foreign goroutine, more than once
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d(false)
		}()
	}
	wg.Wait()
	d(true)

	assert.Eventually(t, func() bool {
		return jsEngine.WeakValuesCount() == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []interface{}{false}, test.Evaluate(t, jsEngine, "responses"))
}

func TestPermissionNullConnectionType(t *testing.T) {
	jsEngine := test.NewJsEngine(t)
	called := make(chan *string, 1)
	registerSubscriptionDownloadAllowedCallback(jsEngine, func(allowedConnectionType *string, done func(allowed bool)) {
		called <- allowedConnectionType
		done(true)
	})
	test.Evaluate(t, jsEngine, `
var responses = [];
_triggerEvent("_isSubscriptionDownloadAllowed", null, function(allowed) { responses.push(allowed); });`)
	assert.Nil(t, <-called)
	assert.Eventually(t, func() bool {
		return jsEngine.WeakValuesCount() == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []interface{}{true}, test.Evaluate(t, jsEngine, "responses"))
}

func TestPermissionExpiredTarget(t *testing.T) {
	jsEngine := test.NewJsEngine(t)
	var done func(bool)
	registerSubscriptionDownloadAllowedCallback(jsEngine, func(allowedConnectionType *string, d func(allowed bool)) {
		done = d
	})
	test.Evaluate(t, jsEngine, `
var responses = [];
_triggerEvent("_isSubscriptionDownloadAllowed", "wifi", function(allowed) { responses.push(allowed); });`)
	require.NotNil(t, done)

	jsEngine.Close()
	assert.NotPanics(t, func() {
		done(true)
		done(false)
	})
	assert.Equal(t, 0, jsEngine.WeakValuesCount())
}

func TestPermissionInvalidArguments(t *testing.T) {
	jsEngine := test.NewJsEngine(t)
	called := false
	registerSubscriptionDownloadAllowedCallback(jsEngine, func(allowedConnectionType *string, done func(allowed bool)) {
		called = true
	})
	// dropped without a response; a debug build asserts, the panic is
	// recovered at the event boundary
	res := test.Evaluate(t, jsEngine, `
var responses = [];
var respond = function(allowed) { responses.push(allowed); };
_triggerEvent("_isSubscriptionDownloadAllowed", 1, respond);
_triggerEvent("_isSubscriptionDownloadAllowed", "wifi", "not a function");
_triggerEvent("_isSubscriptionDownloadAllowed", null);
_triggerEvent("_isSubscriptionDownloadAllowed", null, respond, 3);
responses.length;`)
	assert.Equal(t, int64(0), res)
	assert.False(t, called)
}

func TestPermissionUnansweredReleasesTarget(t *testing.T) {
	jsEngine := test.NewJsEngine(t)
	var requests sync.WaitGroup
	registerSubscriptionDownloadAllowedCallback(jsEngine, func(allowedConnectionType *string, done func(allowed bool)) {
		requests.Done()
	})

	const count = 100
	var answered int
	requests.Add(count)
	require.NoError(t, jsEngine.Do(func(ctx *js.JsContext) error {
		respond := ctx.NewCallback(func(params js.JsValueList) js.JsValue {
			answered++
			return js.JsValue{}
		})
		if err := ctx.SetGlobalProperty("respond", respond); err != nil {
			return err
		}
		_, err := ctx.Evaluate("requests.js", `
for (var i = 0; i < 100; i++) {
  _triggerEvent("_isSubscriptionDownloadAllowed", "wifi", respond);
}`)
		return err
	}))
	requests.Wait()

	// every done was dropped, the script response functions must not be retained
	assert.Eventually(t, func() bool {
		runtime.GC()
		return jsEngine.WeakValuesCount() == 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, answered)
}
