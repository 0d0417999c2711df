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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/filterengine/api/types"
	"github.com/rulego/filterengine/test"
	"github.com/rulego/filterengine/utils/js"
)

func newTestFilterEngine(t *testing.T) *DefaultFilterEngine {
	t.Helper()
	jsEngine := test.NewJsEngine(t, types.WithScriptFiles(testScriptFiles))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	filterEngine, err := Create(ctx, jsEngine, test.TestdataEvaluator(), CreationParameters{
		PreconfiguredPrefs: PreconfiguredPrefs{
			BooleanPrefs: map[BooleanPrefName]bool{FirstRunSubscriptionAutoselect: false},
		},
	})
	require.NoError(t, err)
	return filterEngine
}

func TestFilterEngineMatches(t *testing.T) {
	filterEngine := newTestFilterEngine(t)

	filter, err := filterEngine.Matches("https://example.com/ads/banner.png", ContentTypeImage, "https://example.com/")
	require.NoError(t, err)
	require.NotNil(t, filter)
	assert.Equal(t, "/ads/$image", filter.Text)
	assert.Equal(t, "blocking", filter.Type)

	filter, err = filterEngine.Matches("https://example.com/ads/app.js", ContentTypeScript, "https://example.com/")
	require.NoError(t, err)
	assert.Nil(t, filter)

	filter, err = filterEngine.Matches("https://trusted.example/", ContentTypeDocument, "https://trusted.example/")
	require.NoError(t, err)
	require.NotNil(t, filter)
	assert.Equal(t, "whitelist", filter.Type)
}

func TestFilterEngineSubscriptions(t *testing.T) {
	filterEngine := newTestFilterEngine(t)
	changes := make(chan string, 4)
	filterEngine.SetFilterChangeCallback(func(action string, item js.JsValue) {
		changes <- action + " " + item.GetProperty("url").AsString()
	})

	const url = "https://example.com/list.txt"
	require.NoError(t, filterEngine.AddSubscription(url))
	require.NoError(t, filterEngine.AddSubscription(url))
	listed, err := filterEngine.IsSubscriptionListed(url)
	require.NoError(t, err)
	assert.True(t, listed)

	subscriptions, err := filterEngine.GetListedSubscriptions()
	require.NoError(t, err)
	assert.Equal(t, []Subscription{{URL: url, Title: url}}, subscriptions)

	require.NoError(t, filterEngine.RemoveSubscription(url))
	listed, err = filterEngine.IsSubscriptionListed(url)
	require.NoError(t, err)
	assert.False(t, listed)

	assert.Equal(t, "subscription.added "+url, <-changes)
	assert.Equal(t, "subscription.removed "+url, <-changes)
	assert.Len(t, changes, 0)

	filterEngine.RemoveFilterChangeCallback()
	require.NoError(t, filterEngine.AddSubscription(url))
	filterEngine.Stop()
	assert.False(t, filterEngine.JsEngine().(*js.GojaJsEngine).HasEventCallback(FilterChangeEvent))
	assert.Len(t, changes, 0)
}

func TestFilterEnginePrefs(t *testing.T) {
	filterEngine := newTestFilterEngine(t)

	firstRun, err := filterEngine.IsFirstRun()
	require.NoError(t, err)
	assert.True(t, firstRun)

	autoselect, err := filterEngine.GetBooleanPref(FirstRunSubscriptionAutoselect)
	require.NoError(t, err)
	assert.False(t, autoselect)

	connectionType, err := filterEngine.GetStringPref(AllowedConnectionType)
	require.NoError(t, err)
	assert.Equal(t, "", connectionType)

	require.NoError(t, filterEngine.SetStringPref(AllowedConnectionType, "ethernet"))
	connectionType, err = filterEngine.GetStringPref(AllowedConnectionType)
	require.NoError(t, err)
	assert.Equal(t, "ethernet", connectionType)

	require.NoError(t, filterEngine.SetBooleanPref(SynchronizationEnabled, false))
	v, err := filterEngine.GetPref("synchronization_enabled")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = filterEngine.GetPref("unknown")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestFilterEngineNotReady(t *testing.T) {
	filterEngine := NewDefaultFilterEngine(test.NewJsEngine(t))
	_, err := filterEngine.GetListedSubscriptions()
	assert.True(t, errors.Is(err, ErrEngineNotReady))
	_, err = filterEngine.Matches("https://example.com/", ContentTypeOther, "")
	assert.True(t, errors.Is(err, ErrEngineNotReady))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "IMAGE", ContentTypeImage.String())
	assert.Equal(t, "SCRIPT|IMAGE|DOCUMENT", (ContentTypeDocument | ContentTypeScript | ContentTypeImage).String())
	assert.Equal(t, "", ContentType(0).String())

	c, ok := ContentTypeFromString("image")
	assert.True(t, ok)
	assert.Equal(t, ContentTypeImage, c)

	c, ok = ContentTypeFromString("SCRIPT | xmlhttprequest")
	assert.True(t, ok)
	assert.Equal(t, ContentTypeScript|ContentTypeXmlHttpRequest, c)

	_, ok = ContentTypeFromString("IMAGE|VIDEO")
	assert.False(t, ok)
}
