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

	"github.com/rulego/filterengine/api/types"
	"github.com/rulego/filterengine/utils/js"
)

// IsSubscriptionDownloadAllowedEvent is fired by the scripts before a subscription download.
const IsSubscriptionDownloadAllowedEvent = "_isSubscriptionDownloadAllowed"

// IsConnectionAllowedCallback decides whether a download over allowedConnectionType
// is permitted. allowedConnectionType is nil when the scripts have no preference.
// done may be called from any goroutine, synchronously or later; only the first
// call is delivered to the scripts.
type IsConnectionAllowedCallback func(allowedConnectionType *string, done func(allowed bool))

// registerSubscriptionDownloadAllowedCallback exposes callback to the scripts as the
// _isSubscriptionDownloadAllowed(connectionType, function(allowed)) request. Without
// a callback every request is allowed.
func registerSubscriptionDownloadAllowedCallback(jsEngine JsEngine, callback IsConnectionAllowedCallback) {
	logger := jsEngine.Config().Logger
	jsEngine.SetEventCallback(IsSubscriptionDownloadAllowedEvent, func(params js.JsValueList) {
		// params[0]: nullable string, the allowed_connection_type pref
		// params[1]: function(boolean)
		valid := len(params) == 2 &&
			(params[0].IsNull() || params[0].IsString()) &&
			params[1].IsFunction()
		assertf(valid, "%s expects (string|null, function), got %d args", IsSubscriptionDownloadAllowedEvent, len(params))
		if !valid {
			logf(logger, "invalid %s arguments, request dropped", IsSubscriptionDownloadAllowedEvent)
			return
		}
		if callback == nil {
			if _, err := params[1].Call(true); err != nil {
				logf(logger, "%s response error: %v", IsSubscriptionDownloadAllowedEvent, err)
			}
			return
		}

		var allowedConnectionType *string
		if params[0].IsString() {
			connectionType := params[0].AsString()
			allowedConnectionType = &connectionType
		}
		callback(allowedConnectionType, newPermissionResponse(jsEngine.NewWeakValues(params[1]), logger).done)
	})
}

// permissionResponse delivers the first answer of a predicate to the script
// response function. The weak entry is released once the predicate drops
// done without answering.
type permissionResponse struct {
	once     sync.Once
	response *js.WeakValues
	logger   types.Logger
}

func newPermissionResponse(response *js.WeakValues, logger types.Logger) *permissionResponse {
	r := &permissionResponse{response: response, logger: logger}
	runtime.AddCleanup(r, (*js.WeakValues).Release, response)
	return r
}

func (r *permissionResponse) done(allowed bool) {
	r.once.Do(func() {
		r.response.Post(func(values js.JsValueList) {
			// r stays reachable until the job ran, so the cleanup cannot
			// release the entry under a queued answer
			if _, err := values[0].Call(allowed); err != nil {
				logf(r.logger, "%s response error: %v", IsSubscriptionDownloadAllowedEvent, err)
			}
		})
	})
}

func logf(logger types.Logger, format string, args ...interface{}) {
	if logger != nil {
		logger.Printf(format, args...)
	}
}
