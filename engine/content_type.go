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
	"sort"
	"strings"
)

// ContentType request content type bitmask understood by the filter scripts.
type ContentType int

const (
	ContentTypeOther          ContentType = 1
	ContentTypeScript         ContentType = 2
	ContentTypeImage          ContentType = 4
	ContentTypeStylesheet     ContentType = 8
	ContentTypeObject         ContentType = 16
	ContentTypeSubdocument    ContentType = 32
	ContentTypeWebsocket      ContentType = 128
	ContentTypeWebrtc         ContentType = 256
	ContentTypePing           ContentType = 1024
	ContentTypeXmlHttpRequest ContentType = 2048
	ContentTypeMedia          ContentType = 16384
	ContentTypeFont           ContentType = 32768
	ContentTypePopup          ContentType = 1 << 24
	ContentTypeGenericBlock   ContentType = 1 << 25
	ContentTypeDocument       ContentType = 1 << 26
	ContentTypeElemHide       ContentType = 1 << 27
	ContentTypeGenericHide    ContentType = 1 << 28
)

var contentTypeNames = map[ContentType]string{
	ContentTypeOther:          "OTHER",
	ContentTypeScript:         "SCRIPT",
	ContentTypeImage:          "IMAGE",
	ContentTypeStylesheet:     "STYLESHEET",
	ContentTypeObject:         "OBJECT",
	ContentTypeSubdocument:    "SUBDOCUMENT",
	ContentTypeWebsocket:      "WEBSOCKET",
	ContentTypeWebrtc:         "WEBRTC",
	ContentTypePing:           "PING",
	ContentTypeXmlHttpRequest: "XMLHTTPREQUEST",
	ContentTypeMedia:          "MEDIA",
	ContentTypeFont:           "FONT",
	ContentTypePopup:          "POPUP",
	ContentTypeGenericBlock:   "GENERICBLOCK",
	ContentTypeDocument:       "DOCUMENT",
	ContentTypeElemHide:       "ELEMHIDE",
	ContentTypeGenericHide:    "GENERICHIDE",
}

// String returns the names of the set bits joined with "|", in bit order.
func (c ContentType) String() string {
	var bits []int
	for t := range contentTypeNames {
		if c&t != 0 {
			bits = append(bits, int(t))
		}
	}
	sort.Ints(bits)
	names := make([]string, len(bits))
	for i, b := range bits {
		names[i] = contentTypeNames[ContentType(b)]
	}
	return strings.Join(names, "|")
}

// ContentTypeFromString parses a single name or a "|" separated list of names,
// case insensitive. Unknown names return false.
func ContentTypeFromString(s string) (ContentType, bool) {
	var result ContentType
	for _, part := range strings.Split(s, "|") {
		part = strings.ToUpper(strings.TrimSpace(part))
		found := false
		for t, name := range contentTypeNames {
			if name == part {
				result |= t
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return result, true
}
