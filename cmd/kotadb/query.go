// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kraklabs/kotadb/internal/bootstrap"
	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/internal/output"
	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/primitives"
	"github.com/kraklabs/kotadb/pkg/query"
)

// runQuery executes the 'query' CLI command, routing a structured query
// through the primary or trigram index and printing matching documents.
//
// Flags:
//   - -terms: comma-separated search terms (trigram full-text search)
//   - -tags: comma-separated tags to filter by
//   - -limit: maximum number of results (0 = no limit)
//   - -json: output results as JSON
//
// Examples:
//
//	kotadb query -terms foo,bar -limit 10
//	kotadb query -tags backend,api
func runQuery(args []string, configPath string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	terms := fs.String("terms", "", "Comma-separated search terms")
	tags := fs.String("tags", "", "Comma-separated tags to filter by")
	limit := fs.Int("limit", 20, "Maximum number of results (0 = no limit)")
	timeout := fs.Duration("timeout", 30*time.Second, "Query timeout")
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kotadb query [options]

Executes a structured query against the local KotaDB project.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  kotadb query -terms parser,lexer -limit 10
  kotadb query -tags backend,api
`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		queryFail(err, *jsonOutput)
	}
	cfgPath := resolveConfigPath(cwd, configPath)
	pid, err := readProjectID(cfgPath)
	if err != nil {
		queryFail(kerrors.New(kerrors.NotFound, "no project found", err.Error(), "run 'kotadb init' first", err), *jsonOutput)
	}

	handle, err := bootstrap.OpenProject(bootstrap.ProjectConfig{ProjectID: pid}, nil)
	if err != nil {
		queryFail(kerrors.New(kerrors.NotFound, "project not indexed yet", err.Error(), "run 'kotadb index' first", err), *jsonOutput)
	}
	defer func() { _ = handle.Close() }()

	q := contract.Query{Limit: *limit}
	if *terms != "" {
		q.SearchTerms = splitCSV(*terms)
	}
	for _, t := range splitCSV(*tags) {
		tag, err := primitives.NewTag(t)
		if err != nil {
			queryFail(err, *jsonOutput)
		}
		q.Tags = append(q.Tags, tag)
	}

	router := query.New(handle.Primary, handle.Trigram, handle.Storage)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ids, err := router.Route(ctx, q)
	if err != nil {
		queryFail(kerrors.New(kerrors.Internal, "query failed", err.Error(), "", err), *jsonOutput)
	}

	docs := make([]contract.Document, 0, len(ids))
	for _, id := range ids {
		doc, ok, err := handle.Storage.Get(ctx, id)
		if err != nil || !ok {
			continue
		}
		docs = append(docs, doc)
	}

	if *jsonOutput {
		_ = output.JSON(docs)
	} else {
		printQueryResult(docs)
	}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func queryFail(err error, jsonOutput bool) {
	if jsonOutput {
		_ = output.JSONError(err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

func printQueryResult(docs []contract.Document) {
	if len(docs) == 0 {
		fmt.Println("No results")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPATH\tTITLE\tTAGS")
	fmt.Fprintln(w, "---\t---\t---\t---")
	for _, doc := range docs {
		tagStrs := make([]string, len(doc.Tags))
		for i, t := range doc.Tags {
			tagStrs[i] = t.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			formatCell(doc.ID.String()), formatCell(doc.Path.String()),
			formatCell(doc.Title.String()), formatCell(strings.Join(tagStrs, ",")))
	}
	_ = w.Flush()

	fmt.Printf("\n(%d results)\n", len(docs))
}

func formatCell(v string) string {
	if len(v) > 60 {
		return v[:57] + "..."
	}
	if v == "" {
		return "<none>"
	}
	return v
}
