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
	"errors"
	"fmt"
	"sync"

	"github.com/rulego/filterengine/api/types"
	"github.com/rulego/filterengine/utils/cast"
	"github.com/rulego/filterengine/utils/js"
	"github.com/rulego/filterengine/utils/maps"
)

const (
	// FilterChangeEvent is fired by the scripts when a filter or subscription changes.
	FilterChangeEvent = "filterChange"
	// ApiKey is the global object the engine scripts expose their functions on.
	ApiKey = "API"
)

// ErrEngineNotReady is returned when the engine scripts do not expose the called function.
var ErrEngineNotReady = errors.New("filter engine scripts not loaded")

// JsEngine is the script runtime the filter engine is built on.
// *js.GojaJsEngine implements it.
type JsEngine interface {
	Config() types.Config
	SetEventCallback(eventName string, callback js.EventCallback)
	RemoveEventCallback(eventName string)
	Lock() (*js.JsContext, error)
	Do(fn func(ctx *js.JsContext) error) error
	NewWeakValues(values ...js.JsValue) *js.WeakValues
}

// FilterChangeCallback receives the filter change action, e.g. "subscription.added",
// and the changed item. It runs on the script event loop, item is only valid
// during the call.
type FilterChangeCallback func(action string, item js.JsValue)

// Filter a matching filter returned by Matches.
type Filter struct {
	Text string `mapstructure:"text" json:"text"`
	// Type is e.g. "blocking", "whitelist" or "elemhide".
	Type string `mapstructure:"type" json:"type"`
}

// Subscription a filter list subscription.
type Subscription struct {
	URL      string `mapstructure:"url" json:"url"`
	Title    string `mapstructure:"title" json:"title"`
	Homepage string `mapstructure:"homepage" json:"homepage,omitempty"`
	Disabled bool   `mapstructure:"disabled" json:"disabled"`
}

// DefaultFilterEngine the filter engine handle. It forwards every operation to
// the functions the engine scripts expose on the global API object.
type DefaultFilterEngine struct {
	jsEngine JsEngine

	mu                   sync.RWMutex
	filterChangeCallback FilterChangeCallback
	observing            bool
}

// NewDefaultFilterEngine creates a filter engine handle over jsEngine.
// Use CreateAsync to obtain one whose scripts are loaded.
func NewDefaultFilterEngine(jsEngine JsEngine) *DefaultFilterEngine {
	return &DefaultFilterEngine{jsEngine: jsEngine}
}

// JsEngine returns the script runtime of the engine.
func (e *DefaultFilterEngine) JsEngine() JsEngine {
	return e.jsEngine
}

// StartObservingEvents subscribes to the events the engine scripts fire.
func (e *DefaultFilterEngine) StartObservingEvents() {
	e.mu.Lock()
	e.observing = true
	e.mu.Unlock()
	e.jsEngine.SetEventCallback(FilterChangeEvent, e.onFilterChange)
}

// Stop unsubscribes from the script events. The handle stays usable for calls.
func (e *DefaultFilterEngine) Stop() {
	e.mu.Lock()
	observing := e.observing
	e.observing = false
	e.mu.Unlock()
	if observing {
		e.jsEngine.RemoveEventCallback(FilterChangeEvent)
	}
}

// SetFilterChangeCallback sets the callback notified of filter changes.
func (e *DefaultFilterEngine) SetFilterChangeCallback(callback FilterChangeCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filterChangeCallback = callback
}

// RemoveFilterChangeCallback removes the filter change callback.
func (e *DefaultFilterEngine) RemoveFilterChangeCallback() {
	e.SetFilterChangeCallback(nil)
}

func (e *DefaultFilterEngine) onFilterChange(params js.JsValueList) {
	e.mu.RLock()
	callback := e.filterChangeCallback
	e.mu.RUnlock()
	if callback == nil || len(params) == 0 {
		return
	}
	var item js.JsValue
	if len(params) > 1 {
		item = params[1]
	}
	callback(params[0].AsString(), item)
}

// call invokes API.fn and exports its result.
func (e *DefaultFilterEngine) call(fn string, args ...interface{}) (interface{}, error) {
	var result interface{}
	err := e.jsEngine.Do(func(ctx *js.JsContext) error {
		res, err := ctx.CallFunction(ApiKey+"."+fn, args...)
		if err != nil {
			return err
		}
		result = res.Export()
		return nil
	})
	if errors.Is(err, js.ErrNotAFunction) {
		return nil, fmt.Errorf("%s.%s: %w", ApiKey, fn, ErrEngineNotReady)
	}
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", ApiKey, fn, err)
	}
	return result, nil
}

// GetPref returns the value of the preference key, nil if unset.
func (e *DefaultFilterEngine) GetPref(key string) (interface{}, error) {
	return e.call("getPref", key)
}

// SetPref sets the preference key.
func (e *DefaultFilterEngine) SetPref(key string, value interface{}) error {
	_, err := e.call("setPref", key, value)
	return err
}

// GetBooleanPref returns a boolean preference.
func (e *DefaultFilterEngine) GetBooleanPref(prefName BooleanPrefName) (bool, error) {
	v, err := e.GetPref(BooleanPrefNameToString(prefName))
	if err != nil {
		return false, err
	}
	return cast.ToBool(v), nil
}

// SetBooleanPref sets a boolean preference.
func (e *DefaultFilterEngine) SetBooleanPref(prefName BooleanPrefName, value bool) error {
	return e.SetPref(BooleanPrefNameToString(prefName), value)
}

// GetStringPref returns a string preference, "" if unset.
func (e *DefaultFilterEngine) GetStringPref(prefName StringPrefName) (string, error) {
	v, err := e.GetPref(StringPrefNameToString(prefName))
	if err != nil {
		return "", err
	}
	return cast.ToString(v), nil
}

// SetStringPref sets a string preference.
func (e *DefaultFilterEngine) SetStringPref(prefName StringPrefName, value string) error {
	return e.SetPref(StringPrefNameToString(prefName), value)
}

// IsFirstRun reports whether the scripts found no stored data at load time.
func (e *DefaultFilterEngine) IsFirstRun() (bool, error) {
	v, err := e.call("isFirstRun")
	if err != nil {
		return false, err
	}
	return cast.ToBool(v), nil
}

// Matches returns the filter matching a request of contentType for url made by
// documentURL, nil if no filter matches.
func (e *DefaultFilterEngine) Matches(url string, contentType ContentType, documentURL string) (*Filter, error) {
	v, err := e.call("checkFilterMatch", url, int(contentType), documentURL)
	if err != nil || v == nil {
		return nil, err
	}
	// a filter is always {text, type} strings
	var filter Filter
	if err := maps.Map2Struct(v, &filter); err != nil {
		return nil, fmt.Errorf("decode filter: %w", err)
	}
	return &filter, nil
}

// GetListedSubscriptions returns the subscriptions in the filter list.
func (e *DefaultFilterEngine) GetListedSubscriptions() ([]Subscription, error) {
	v, err := e.call("getListedSubscriptions")
	if err != nil || v == nil {
		return nil, err
	}
	var subscriptions []Subscription
	if err := maps.WeakMap2Struct(v, &subscriptions); err != nil {
		return nil, fmt.Errorf("decode subscriptions: %w", err)
	}
	return subscriptions, nil
}

// AddSubscription adds the subscription url to the filter list.
func (e *DefaultFilterEngine) AddSubscription(url string) error {
	_, err := e.call("addSubscriptionToList", url)
	return err
}

// RemoveSubscription removes the subscription url from the filter list.
func (e *DefaultFilterEngine) RemoveSubscription(url string) error {
	_, err := e.call("removeSubscriptionFromList", url)
	return err
}

// IsSubscriptionListed reports whether url is in the filter list.
func (e *DefaultFilterEngine) IsSubscriptionListed(url string) (bool, error) {
	v, err := e.call("isListedSubscription", url)
	if err != nil {
		return false, err
	}
	return cast.ToBool(v), nil
}
