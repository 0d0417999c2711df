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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rulego/filterengine/api/types"
	"github.com/rulego/filterengine/config"
	"github.com/rulego/filterengine/engine"
	"github.com/rulego/filterengine/utils/js"
	"github.com/rulego/filterengine/utils/json"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Verbose    bool
	Format     string // "json" | "text"

	logger *zap.Logger
	level  zap.AtomicLevel
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the filterengine CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "filterengine",
		Short:         "Filter engine bootstrap tool",
		Long:          "Loads the filter engine scripts into an embedded JavaScript runtime, waits for them to initialize and inspects the engine.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			zapConfig := zap.NewProductionConfig()
			if opts.Verbose {
				zapConfig.Level.SetLevel(zapcore.DebugLevel)
			}
			opts.level = zapConfig.Level
			logger, err := zapConfig.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (.ini, .yaml or .json)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewMatchCommand(opts))
	cmd.AddCommand(NewPrefsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// EngineFlags are the flags of the commands creating an engine.
type EngineFlags struct {
	ScriptDir string
	Timeout   time.Duration
	Policy    string
	Prefs     map[string]string
}

func (f *EngineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ScriptDir, "scripts", "", "directory of the engine scripts, overrides script_dir")
	cmd.Flags().DurationVar(&f.Timeout, "timeout", 0, "max time to wait for the engine to initialize, overrides init_timeout")
	cmd.Flags().StringVar(&f.Policy, "policy", "", "connection policy expression, overrides connection_policy")
	cmd.Flags().StringToStringVar(&f.Prefs, "pref", nil, "preconfigured preference key=value, repeatable")
}

// session is a created filter engine and the runtime it lives in.
type session struct {
	jsEngine     *js.GojaJsEngine
	filterEngine *engine.DefaultFilterEngine
	pool         types.Pool
}

func (s *session) Close() {
	s.jsEngine.Close()
	if s.pool != nil {
		s.pool.Release()
	}
}

// createEngine loads the configuration, applies flags and waits for the engine.
func createEngine(ctx context.Context, opts *RootOptions, flags *EngineFlags) (*session, error) {
	logger := opts.logger
	c, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if c.Debug {
		opts.level.SetLevel(zapcore.DebugLevel)
	}
	if flags.ScriptDir != "" {
		c.ScriptDir = flags.ScriptDir
	}
	if flags.Policy != "" {
		c.ConnectionPolicy = flags.Policy
	}
	if len(flags.Prefs) > 0 {
		if c.Prefs == nil {
			c.Prefs = make(map[string]string)
		}
		for k, v := range flags.Prefs {
			c.Prefs[k] = v
		}
	}
	timeout := c.InitTimeoutDuration()
	if flags.Timeout > 0 {
		timeout = flags.Timeout
	}

	prefs, err := c.PreconfiguredPrefs()
	if err != nil {
		return nil, err
	}
	if err := c.CheckScripts(); err != nil {
		return nil, err
	}
	engineConfig := types.NewConfig(append(c.Options(),
		types.WithLogger(types.NewZapLogger(logger)),
		types.WithDefaultPool(),
	)...)
	policy, err := c.ConnectionPolicyCallback(engineConfig.Pool, engineConfig.Logger)
	if err != nil {
		engineConfig.Pool.Release()
		return nil, err
	}
	jsEngine, err := js.NewGojaJsEngine(engineConfig)
	if err != nil {
		engineConfig.Pool.Release()
		return nil, err
	}
	s := &session{jsEngine: jsEngine, pool: engineConfig.Pool}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	logger.Debug("creating filter engine",
		zap.String("scriptDir", c.ScriptDir),
		zap.Strings("scriptFiles", engineConfig.ScriptFileNames()),
		zap.Duration("timeout", timeout))
	started := time.Now()
	s.filterEngine, err = engine.Create(ctx, jsEngine, c.Evaluator(), engine.CreationParameters{
		PreconfiguredPrefs:                    prefs,
		IsSubscriptionDownloadAllowedCallback: policy,
	})
	if err != nil {
		logger.Error("filter engine creation failed", zap.Error(err))
		s.Close()
		return nil, err
	}
	logger.Info("filter engine created", zap.Duration("elapsed", time.Since(started)))
	return s, nil
}

// signalContext is canceled on interrupt.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt)
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
