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
	"strings"
	"time"
)

// Option is a function type that modifies the Config.
type Option func(*Config) error

// WithPool is an option that sets the pool of the Config.
func WithPool(pool Pool) Option {
	return func(c *Config) error {
		c.Pool = pool
		return nil
	}
}

// WithDefaultPool sets an unbounded worker pool.
func WithDefaultPool() Option {
	return func(c *Config) error {
		c.Pool = DefaultPool()
		return nil
	}
}

// WithScriptMaxExecutionTime is an option that sets the js max execution time of the Config.
func WithScriptMaxExecutionTime(scriptMaxExecutionTime time.Duration) Option {
	return func(c *Config) error {
		c.ScriptMaxExecutionTime = scriptMaxExecutionTime
		return nil
	}
}

// WithLogger is an option that sets the logger of the Config.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithProperties merges the given key-value pairs into the global properties.
func WithProperties(values map[string]string) Option {
	return func(c *Config) error {
		if c.Properties == nil {
			c.Properties = NewProperties()
		}
		for k, v := range values {
			c.Properties.PutValue(k, v)
		}
		return nil
	}
}

// WithScriptFiles replaces the script manifest. Entries may be given one per
// argument or space separated, the order is preserved.
func WithScriptFiles(files ...string) Option {
	return func(c *Config) error {
		var manifest []string
		for _, item := range files {
			manifest = append(manifest, strings.Fields(item)...)
		}
		c.ScriptFiles = manifest
		return nil
	}
}

// WithUdf registers a custom function or script.
func WithUdf(name string, value interface{}) Option {
	return func(c *Config) error {
		c.RegisterUdf(name, value)
		return nil
	}
}
