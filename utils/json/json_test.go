/*
 * Copyright 2023 The RuleGo Authors.
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

package json

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

type Subscription struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

func TestMarshal(t *testing.T) {
	var subscription = Subscription{
		URL: "https://example.com/list.txt?a=1&b=2",
	}
	v, err := Marshal2(subscription, false, "")
	assert.Nil(t, err)
	assert.Equal(t, `{"url":"https://example.com/list.txt?a=1&b=2","title":""}`, string(v))

	v, err = MarshalIndent(subscription, "")
	assert.Nil(t, err)
	assert.Equal(t, `{"url":"https://example.com/list.txt?a=1&b=2","title":""}`, string(v))

	escaped, _ := json.Marshal(subscription)
	v, _ = Marshal2(subscription, true, "")
	assert.Equal(t, string(escaped), string(v))
}

func TestMarshalIndent(t *testing.T) {
	var subscription = Subscription{
		URL: "https://example.com/list.txt",
	}
	v, _ := json.Marshal(subscription)
	var buf bytes.Buffer
	_ = json.Indent(&buf, v, "", "  ")

	result, err := MarshalIndent(subscription, "  ")
	assert.Nil(t, err)
	assert.Equal(t, buf.String(), string(result))
}

func TestUnMarshal(t *testing.T) {
	v := []byte(`{"url":"https://example.com/list.txt","title":"Example"}`)
	var subscription Subscription
	err := Unmarshal(v, &subscription)
	assert.Nil(t, err)
	assert.Equal(t, "Example", subscription.Title)
	assert.NotNil(t, Unmarshal([]byte("{"), &subscription))
}
