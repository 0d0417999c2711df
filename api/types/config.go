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

package types

import (
	"math"
	"path"
	"strings"
	"time"

	"github.com/rulego/filterengine/utils/pool"
)

// DefaultScriptFiles is the space separated list of engine scripts, in load order.
// Later scripts reference globals defined by earlier ones, so the order is part of the contract.
const DefaultScriptFiles = "lib/compat.js lib/info.js lib/io.js lib/prefs.js lib/utils.js " +
	"lib/filterNotifier.js lib/filterClasses.js lib/subscriptionClasses.js lib/filterStorage.js " +
	"lib/elemHide.js lib/matcher.js lib/filterListener.js lib/synchronizer.js lib/api.js lib/init.js"

// Config defines the configuration for the filter engine and its script runtime.
// Config 过滤引擎及其脚本运行时的配置
type Config struct {
	// ScriptMaxExecutionTime is the maximum execution time of a single script evaluation, defaulting to 2000 milliseconds.
	// A value <= 0 disables the interrupt timer.
	ScriptMaxExecutionTime time.Duration
	// Pool is the interface for a coroutine pool. Native permission predicates are evaluated on it.
	// If not configured, the go func method is used by default.
	Pool Pool
	// Logger is the logging interface, defaulting to `DefaultLogger()`.
	Logger Logger
	// Properties are global properties published to scripts under the `global` object.
	Properties Properties
	// Udf is a map for registering custom Golang functions and native scripts that are
	// installed into the script runtime before any engine script is evaluated.
	Udf map[string]interface{}
	// ScriptFiles is the ordered manifest of engine scripts. Only the base name of every
	// entry is handed to the evaluate callback.
	ScriptFiles []string
}

// RegisterUdf registers a custom function or a JavaScript snippet.
func (c *Config) RegisterUdf(name string, value interface{}) {
	if c.Udf == nil {
		c.Udf = make(map[string]interface{})
	}
	c.Udf[name] = value
}

// ScriptFileNames returns the base names of the manifest entries, in manifest order.
func (c Config) ScriptFileNames() []string {
	var names []string
	for _, file := range c.ScriptFiles {
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}
		names = append(names, path.Base(file))
	}
	return names
}

// NewConfig creates a new Config with default values and applies the provided options.
// NewConfig 使用默认值创建配置并应用给定选项
func NewConfig(opts ...Option) Config {
	c := &Config{
		ScriptMaxExecutionTime: time.Millisecond * 2000,
		Logger:                 DefaultLogger(),
		Properties:             NewProperties(),
		ScriptFiles:            strings.Fields(DefaultScriptFiles),
	}

	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}

// DefaultPool provides a default coroutine pool.
func DefaultPool() Pool {
	wp := &pool.WorkerPool{MaxWorkersCount: math.MaxInt32}
	wp.Start()
	return wp
}
