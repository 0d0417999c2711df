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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rulego/filterengine/engine"
)

// InitReport is the state of a freshly created engine.
type InitReport struct {
	FirstRun      bool                   `json:"firstRun"`
	Prefs         map[string]interface{} `json:"prefs"`
	Subscriptions []engine.Subscription  `json:"subscriptions"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &EngineFlags{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the filter engine and print its state",
		Long: `Create the filter engine: publish the preconfigured preferences, load the
engine scripts in manifest order and wait for them to fire _init. Prints the
preferences and the listed subscriptions of the created engine.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, flags, cmd)
		},
	}
	flags.register(cmd)
	return cmd
}

func runInit(opts *RootOptions, flags *EngineFlags, cmd *cobra.Command) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()
	s, err := createEngine(ctx, opts, flags)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := newInitReport(s.filterEngine)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(w, report)
	}
	fmt.Fprintf(w, "first run: %t\n", report.FirstRun)
	fmt.Fprintln(w, "prefs:")
	for _, prefName := range engine.AllBooleanPrefNames() {
		fmt.Fprintf(w, "  %s = %v\n", prefName, report.Prefs[prefName.String()])
	}
	for _, prefName := range engine.AllStringPrefNames() {
		fmt.Fprintf(w, "  %s = %v\n", prefName, report.Prefs[prefName.String()])
	}
	fmt.Fprintf(w, "subscriptions: %d\n", len(report.Subscriptions))
	for _, subscription := range report.Subscriptions {
		state := "enabled"
		if subscription.Disabled {
			state = "disabled"
		}
		fmt.Fprintf(w, "  %s (%s) %s\n", subscription.URL, subscription.Title, state)
	}
	return nil
}

func newInitReport(filterEngine *engine.DefaultFilterEngine) (*InitReport, error) {
	report := &InitReport{Prefs: make(map[string]interface{})}
	var err error
	if report.FirstRun, err = filterEngine.IsFirstRun(); err != nil {
		return nil, err
	}
	for _, prefName := range engine.AllBooleanPrefNames() {
		if report.Prefs[prefName.String()], err = filterEngine.GetBooleanPref(prefName); err != nil {
			return nil, err
		}
	}
	for _, prefName := range engine.AllStringPrefNames() {
		if report.Prefs[prefName.String()], err = filterEngine.GetStringPref(prefName); err != nil {
			return nil, err
		}
	}
	if report.Subscriptions, err = filterEngine.GetListedSubscriptions(); err != nil {
		return nil, err
	}
	if report.Subscriptions == nil {
		report.Subscriptions = []engine.Subscription{}
	}
	return report, nil
}
