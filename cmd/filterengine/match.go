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

// MatchResult is the outcome of a match command.
type MatchResult struct {
	URL         string         `json:"url"`
	ContentType string         `json:"contentType"`
	DocumentURL string         `json:"documentUrl"`
	Filter      *engine.Filter `json:"filter"`
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &EngineFlags{}
	var contentType, documentURL string
	cmd := &cobra.Command{
		Use:   "match <url>",
		Short: "Find the filter matching a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(rootOpts, flags, cmd, args[0], contentType, documentURL)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&contentType, "type", "OTHER", "request content type, e.g. IMAGE or SCRIPT|XMLHTTPREQUEST")
	cmd.Flags().StringVar(&documentURL, "document", "", "url of the document making the request")
	return cmd
}

func runMatch(opts *RootOptions, flags *EngineFlags, cmd *cobra.Command, url, contentTypeName, documentURL string) error {
	contentType, ok := engine.ContentTypeFromString(contentTypeName)
	if !ok {
		return fmt.Errorf("unknown content type %q", contentTypeName)
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()
	s, err := createEngine(ctx, opts, flags)
	if err != nil {
		return err
	}
	defer s.Close()

	filter, err := s.filterEngine.Matches(url, contentType, documentURL)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(w, MatchResult{
			URL:         url,
			ContentType: contentType.String(),
			DocumentURL: documentURL,
			Filter:      filter,
		})
	}
	if filter == nil {
		fmt.Fprintf(w, "%s [%s]: no match\n", url, contentType)
		return nil
	}
	fmt.Fprintf(w, "%s [%s]: %s %s\n", url, contentType, filter.Type, filter.Text)
	return nil
}
