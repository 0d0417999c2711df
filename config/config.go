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

// Package config loads the filter engine configuration from ini, yaml or json
// files and FILTERENGINE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/rulego/filterengine/api/types"
	"github.com/rulego/filterengine/engine"
	"github.com/rulego/filterengine/utils/cast"
	"github.com/rulego/filterengine/utils/fs"
	"github.com/rulego/filterengine/utils/js"
	"github.com/rulego/filterengine/utils/json"
	"github.com/rulego/filterengine/utils/maps"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "FILTERENGINE_"

var (
	// ErrUnknownPreference is returned for a preconfigured preference key the engine does not define.
	ErrUnknownPreference = errors.New("unknown preference")
	// ErrUnsupportedFormat is returned for a config file that is neither ini, yaml nor json.
	ErrUnsupportedFormat = errors.New("unsupported config file format")
	// ErrMissingScript is returned when a manifest script is not in ScriptDir.
	ErrMissingScript = errors.New("missing engine script")
)

// DefaultConfig the configuration used without a config file.
var DefaultConfig = Config{
	ScriptDir:              "lib",
	ScriptFiles:            types.DefaultScriptFiles,
	ScriptMaxExecutionTime: 2000,
}

type Config struct {
	// ScriptDir directory the engine scripts are read from
	ScriptDir string `ini:"script_dir" mapstructure:"script_dir" env:"SCRIPT_DIR"`
	// ScriptFiles space separated engine scripts, in load order
	ScriptFiles string `ini:"script_files" mapstructure:"script_files" env:"SCRIPT_FILES"`
	// ScriptMaxExecutionTime max execution time of one script evaluation, in milliseconds
	ScriptMaxExecutionTime int `ini:"script_max_execution_time" mapstructure:"script_max_execution_time" env:"SCRIPT_MAX_EXECUTION_TIME"`
	// InitTimeout how long to wait for the engine scripts to finish initializing,
	// in milliseconds. 0 waits indefinitely.
	InitTimeout int `ini:"init_timeout" mapstructure:"init_timeout" env:"INIT_TIMEOUT"`
	// ConnectionPolicy expr expression deciding subscription downloads, empty allows all
	ConnectionPolicy string `ini:"connection_policy" mapstructure:"connection_policy" env:"CONNECTION_POLICY"`
	// Debug enables debug logging
	Debug bool `ini:"debug" mapstructure:"debug" env:"DEBUG"`
	// Global properties published to the scripts under the global object
	Global types.Properties `ini:"-" mapstructure:"global" env:"GLOBAL"`
	// Prefs preconfigured preferences by script key, the [preconfigured_prefs] section
	Prefs map[string]string `ini:"-" mapstructure:"preconfigured_prefs" env:"PREFS"`
}

// Load reads path, ini, yaml or json by extension, then applies the environment
// overrides. An empty path loads DefaultConfig.
func Load(path string) (Config, error) {
	c := DefaultConfig
	if path != "" {
		var err error
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ini", ".conf":
			c, err = loadIni(path)
		case ".yaml", ".yml":
			c, err = loadYaml(path)
		case ".json":
			c, err = loadJson(path)
		default:
			err = fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
		}
		if err != nil {
			return c, err
		}
	}
	if err := ParseEnv(&c); err != nil {
		return c, err
	}
	return c, nil
}

func loadIni(path string) (Config, error) {
	c := DefaultConfig
	data, err := fs.DefaultFile.Get(path)
	if err != nil {
		return c, fmt.Errorf("load %s: %w", path, err)
	}
	cfg, err := ini.Load(data)
	if err != nil {
		return c, fmt.Errorf("load %s: %w", path, err)
	}
	if err := cfg.MapTo(&c); err != nil {
		return c, fmt.Errorf("map %s: %w", path, err)
	}
	if section, err := cfg.GetSection("global"); err == nil {
		c.Global = section.KeysHash()
	}
	if section, err := cfg.GetSection("preconfigured_prefs"); err == nil {
		c.Prefs = section.KeysHash()
	}
	return c, nil
}

func loadYaml(path string) (Config, error) {
	c := DefaultConfig
	data, err := fs.DefaultFile.Get(path)
	if err != nil {
		return c, fmt.Errorf("load %s: %w", path, err)
	}
	return parseYaml(data, c)
}

func loadJson(path string) (Config, error) {
	c := DefaultConfig
	data, err := fs.DefaultFile.Get(path)
	if err != nil {
		return c, fmt.Errorf("load %s: %w", path, err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return c, fmt.Errorf("parse json: %w", err)
	}
	if err := maps.WeakMap2Struct(raw, &c); err != nil {
		return c, fmt.Errorf("decode json: %w", err)
	}
	return c, nil
}

// parseYaml decodes data over c. Values are weakly typed so that e.g.
// `synchronization_enabled: false` lands in the string keyed prefs map.
func parseYaml(data []byte, c Config) (Config, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return c, fmt.Errorf("parse yaml: %w", err)
	}
	if err := maps.WeakMap2Struct(raw, &c); err != nil {
		return c, fmt.Errorf("decode yaml: %w", err)
	}
	return c, nil
}

// ParseEnv overrides target with the FILTERENGINE_* environment variables.
func ParseEnv(target *Config) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// PreconfiguredPrefs decodes Prefs with the engine preference codec.
func (c Config) PreconfiguredPrefs() (engine.PreconfiguredPrefs, error) {
	prefs := engine.PreconfiguredPrefs{
		BooleanPrefs: make(map[engine.BooleanPrefName]bool),
		StringPrefs:  make(map[engine.StringPrefName]string),
	}
	for key, value := range c.Prefs {
		if name, ok := engine.StringToBooleanPrefName(key); ok {
			b, err := cast.ToBoolE(value)
			if err != nil {
				return prefs, fmt.Errorf("preference %s: %w", key, err)
			}
			prefs.BooleanPrefs[name] = b
		} else if name, ok := engine.StringToStringPrefName(key); ok {
			prefs.StringPrefs[name] = value
		} else {
			return prefs, fmt.Errorf("%w: %s", ErrUnknownPreference, key)
		}
	}
	return prefs, nil
}

// Options returns the script runtime options of the configuration.
func (c Config) Options() []types.Option {
	opts := []types.Option{
		types.WithScriptMaxExecutionTime(time.Duration(c.ScriptMaxExecutionTime) * time.Millisecond),
		types.WithProperties(c.Global),
	}
	if strings.TrimSpace(c.ScriptFiles) != "" {
		opts = append(opts, types.WithScriptFiles(c.ScriptFiles))
	}
	return opts
}

// ScriptStorage returns the storage rooted at ScriptDir. Manifest entries
// cannot reach outside of it.
func (c Config) ScriptStorage() fs.File {
	return fs.NewFSStorage(c.ScriptDir, os.DirFS(c.ScriptDir))
}

// Evaluator returns the evaluator reading the scripts from ScriptDir.
func (c Config) Evaluator() js.EvaluateCallback {
	return js.NewFileEvaluator(c.ScriptStorage(), ".")
}

// CheckScripts verifies that every manifest script is present in ScriptDir.
// The error lists the scripts that were found instead.
func (c Config) CheckScripts() error {
	storage := c.ScriptStorage()
	var missing []string
	for _, name := range types.NewConfig(c.Options()...).ScriptFileNames() {
		if !storage.IsExist(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	found, _ := storage.GetFilePaths("*.js")
	for i, p := range found {
		found[i] = path.Base(p)
	}
	return fmt.Errorf("%w: %s in %s (found: %s)", ErrMissingScript,
		strings.Join(missing, ", "), c.ScriptDir, strings.Join(found, ", "))
}

// ConnectionPolicyCallback compiles ConnectionPolicy. An empty policy returns
// nil, which allows every download.
func (c Config) ConnectionPolicyCallback(pool types.Pool, logger types.Logger) (engine.IsConnectionAllowedCallback, error) {
	if strings.TrimSpace(c.ConnectionPolicy) == "" {
		return nil, nil
	}
	return engine.NewExprConnectionPolicy(c.ConnectionPolicy, pool, logger)
}

// InitTimeoutDuration returns InitTimeout as a duration, 0 for no timeout.
func (c Config) InitTimeoutDuration() time.Duration {
	if c.InitTimeout <= 0 {
		return 0
	}
	return time.Duration(c.InitTimeout) * time.Millisecond
}
