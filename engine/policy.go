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
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/rulego/filterengine/api/types"
)

// AllowAll allows every download.
func AllowAll() IsConnectionAllowedCallback {
	return func(allowedConnectionType *string, done func(allowed bool)) {
		done(true)
	}
}

// DenyAll denies every download.
func DenyAll() IsConnectionAllowedCallback {
	return func(allowedConnectionType *string, done func(allowed bool)) {
		done(false)
	}
}

// NewExprConnectionPolicy compiles a boolean expr expression deciding subscription
// downloads. The expression sees `connectionType` (the allowed_connection_type
// preference, "" when unset) and `known` (whether the preference is set), e.g.
//
//	!known || connectionType in ["wifi", "ethernet"]
//
// Evaluation runs on pool. An evaluation error denies the download.
func NewExprConnectionPolicy(expression string, pool types.Pool, logger types.Logger) (IsConnectionAllowedCallback, error) {
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile connection policy %q: %w", expression, err)
	}
	return func(allowedConnectionType *string, done func(allowed bool)) {
		evn := map[string]interface{}{
			"connectionType": "",
			"known":          allowedConnectionType != nil,
		}
		if allowedConnectionType != nil {
			evn["connectionType"] = *allowedConnectionType
		}
		types.Go(pool, func() {
			out, err := vm.Run(program, evn)
			if err != nil {
				logf(logger, "connection policy %q error: %v", expression, err)
				done(false)
				return
			}
			result, _ := out.(bool)
			done(result)
		})
	}, nil
}
