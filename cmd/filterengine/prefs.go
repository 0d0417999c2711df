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

// PrefInfo describes one preference known to the engine.
type PrefInfo struct {
	Key  string `json:"key"`
	Type string `json:"type"`
}

// NewPrefsCommand creates the prefs command.
func NewPrefsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prefs",
		Short: "List the preferences that can be preconfigured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs := listPrefs()
			w := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return writeJSON(w, prefs)
			}
			for _, pref := range prefs {
				fmt.Fprintf(w, "%-40s %s\n", pref.Key, pref.Type)
			}
			return nil
		},
	}
}

func listPrefs() []PrefInfo {
	var prefs []PrefInfo
	for _, prefName := range engine.AllBooleanPrefNames() {
		prefs = append(prefs, PrefInfo{Key: engine.BooleanPrefNameToString(prefName), Type: "boolean"})
	}
	for _, prefName := range engine.AllStringPrefNames() {
		prefs = append(prefs, PrefInfo{Key: engine.StringPrefNameToString(prefName), Type: "string"})
	}
	return prefs
}
