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

// BooleanPrefName boolean preference identifier.
type BooleanPrefName int

const (
	SynchronizationEnabled BooleanPrefName = iota
	FirstRunSubscriptionAutoselect
	// booleanPrefNameCount must stay the last constant.
	booleanPrefNameCount
)

// StringPrefName string preference identifier.
type StringPrefName int

const (
	AllowedConnectionType StringPrefName = iota
	// stringPrefNameCount must stay the last constant.
	stringPrefNameCount
)

// Preference keys used by the engine scripts.
const (
	SynchronizationEnabledKey         = "synchronization_enabled"
	FirstRunSubscriptionAutoselectKey = "first_run_subscription_auto_select"
	AllowedConnectionTypeKey          = "allowed_connection_type"
)

// BooleanPrefNameToString returns the script key of prefName.
// An undefined variant is a programming error and yields "".
func BooleanPrefNameToString(prefName BooleanPrefName) string {
	switch prefName {
	case SynchronizationEnabled:
		return SynchronizationEnabledKey
	case FirstRunSubscriptionAutoselect:
		return FirstRunSubscriptionAutoselectKey
	default:
		assertf(false, "missing case for BooleanPrefName(%d)", int(prefName))
		return ""
	}
}

// StringPrefNameToString returns the script key of prefName.
// An undefined variant is a programming error and yields "".
func StringPrefNameToString(prefName StringPrefName) string {
	switch prefName {
	case AllowedConnectionType:
		return AllowedConnectionTypeKey
	default:
		assertf(false, "missing case for StringPrefName(%d)", int(prefName))
		return ""
	}
}

// StringToBooleanPrefName decodes a script key. Matching is exact.
// When ok is false the returned name is not a valid variant and must not be used.
func StringToBooleanPrefName(prefNameStr string) (prefName BooleanPrefName, ok bool) {
	switch prefNameStr {
	case SynchronizationEnabledKey:
		return SynchronizationEnabled, true
	case FirstRunSubscriptionAutoselectKey:
		return FirstRunSubscriptionAutoselect, true
	}
	return booleanPrefNameCount, false
}

// StringToStringPrefName decodes a script key. Matching is exact.
// When ok is false the returned name is not a valid variant and must not be used.
func StringToStringPrefName(prefNameStr string) (prefName StringPrefName, ok bool) {
	switch prefNameStr {
	case AllowedConnectionTypeKey:
		return AllowedConnectionType, true
	}
	return stringPrefNameCount, false
}

func (p BooleanPrefName) String() string {
	return BooleanPrefNameToString(p)
}

func (p StringPrefName) String() string {
	return StringPrefNameToString(p)
}

// AllBooleanPrefNames returns every defined boolean preference, in declaration order.
func AllBooleanPrefNames() []BooleanPrefName {
	names := make([]BooleanPrefName, 0, booleanPrefNameCount)
	for p := BooleanPrefName(0); p < booleanPrefNameCount; p++ {
		names = append(names, p)
	}
	return names
}

// AllStringPrefNames returns every defined string preference, in declaration order.
func AllStringPrefNames() []StringPrefName {
	names := make([]StringPrefName, 0, stringPrefNameCount)
	for p := StringPrefName(0); p < stringPrefNameCount; p++ {
		names = append(names, p)
	}
	return names
}

// PreconfiguredPrefs preference values published to the scripts before they load.
type PreconfiguredPrefs struct {
	BooleanPrefs map[BooleanPrefName]bool
	StringPrefs  map[StringPrefName]string
}

// IsEmpty reports whether no preference is set.
func (p PreconfiguredPrefs) IsEmpty() bool {
	return len(p.BooleanPrefs) == 0 && len(p.StringPrefs) == 0
}

// Keys returns the encoded key to value map.
func (p PreconfiguredPrefs) Keys() map[string]interface{} {
	values := make(map[string]interface{}, len(p.BooleanPrefs)+len(p.StringPrefs))
	for name, v := range p.BooleanPrefs {
		if key := BooleanPrefNameToString(name); key != "" {
			values[key] = v
		}
	}
	for name, v := range p.StringPrefs {
		if key := StringPrefNameToString(name); key != "" {
			values[key] = v
		}
	}
	return values
}
