// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package trigram

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

func mustPath(t *testing.T, s string) primitives.Path {
	t.Helper()
	p, err := primitives.NewPath(s)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	return p
}

func TestIndex_InsertAndSearch(t *testing.T) {
	ctx := context.Background()
	idx, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	a := primitives.NewDocID()
	b := primitives.NewDocID()
	if err := idx.InsertWithContent(ctx, a, mustPath(t, "a.go"), []byte("func handleRequest(w http.ResponseWriter) {}")); err != nil {
		t.Fatalf("InsertWithContent a: %v", err)
	}
	if err := idx.InsertWithContent(ctx, b, mustPath(t, "b.go"), []byte("package main\nfunc main() {}")); err != nil {
		t.Fatalf("InsertWithContent b: %v", err)
	}

	got, err := idx.Search(ctx, contract.Query{SearchTerms: []string{"handleRequest"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0] != a {
		t.Fatalf("Search(handleRequest) = %v, want [%s]", got, a)
	}
}

func TestIndex_DeleteRemovesFromPostings(t *testing.T) {
	ctx := context.Background()
	idx, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id := primitives.NewDocID()
	if err := idx.InsertWithContent(ctx, id, mustPath(t, "a.go"), []byte("unique_marker_xyz")); err != nil {
		t.Fatalf("InsertWithContent: %v", err)
	}
	ok, err := idx.Delete(ctx, id)
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	got, err := idx.Search(ctx, contract.Query{SearchTerms: []string{"unique_marker_xyz"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Search after delete = %v, want empty", got)
	}
}

func TestIndex_ReinsertReplacesPostings(t *testing.T) {
	ctx := context.Background()
	idx, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id := primitives.NewDocID()
	if err := idx.InsertWithContent(ctx, id, mustPath(t, "a.go"), []byte("first_version_marker")); err != nil {
		t.Fatalf("InsertWithContent: %v", err)
	}
	if err := idx.InsertWithContent(ctx, id, mustPath(t, "a.go"), []byte("second_version_marker")); err != nil {
		t.Fatalf("InsertWithContent: %v", err)
	}

	got, _ := idx.Search(ctx, contract.Query{SearchTerms: []string{"first_version_marker"}})
	if len(got) != 0 {
		t.Errorf("stale content still matched: %v", got)
	}
	got, _ = idx.Search(ctx, contract.Query{SearchTerms: []string{"second_version_marker"}})
	if len(got) != 1 || got[0] != id {
		t.Errorf("Search(second_version_marker) = %v, want [%s]", got, id)
	}
}

func TestIndex_RankingPrefersCloserMatches(t *testing.T) {
	ctx := context.Background()
	idx, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	near := primitives.NewDocID()
	far := primitives.NewDocID()
	if err := idx.InsertWithContent(ctx, near, mustPath(t, "near.go"), []byte("alpha beta")); err != nil {
		t.Fatalf("InsertWithContent: %v", err)
	}
	padding := make([]byte, 500)
	for i := range padding {
		padding[i] = 'x'
	}
	farContent := append([]byte("alpha "), append(padding, []byte(" beta")...)...)
	if err := idx.InsertWithContent(ctx, far, mustPath(t, "far.go"), farContent); err != nil {
		t.Fatalf("InsertWithContent: %v", err)
	}

	got, err := idx.Search(ctx, contract.Query{SearchTerms: []string{"alpha", "beta"}, Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0] != near {
		t.Errorf("got[0] = %v, want the closer match %v", got[0], near)
	}
}

func TestIndex_ShortQueryFallsBackToPrefixMatch(t *testing.T) {
	ctx := context.Background()
	idx, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id := primitives.NewDocID()
	if err := idx.InsertWithContent(ctx, id, mustPath(t, "a.go"), []byte("ab cdef")); err != nil {
		t.Fatalf("InsertWithContent: %v", err)
	}
	got, err := idx.Search(ctx, contract.Query{SearchTerms: []string{"ab"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0] != id {
		t.Fatalf("Search(ab) = %v, want [%s]", got, id)
	}
}

func TestIndex_ReopenAfterFlushPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	idx, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id := primitives.NewDocID()
	if err := idx.InsertWithContent(ctx, id, mustPath(t, "a.go"), []byte("distinctive_token_here")); err != nil {
		t.Fatalf("InsertWithContent: %v", err)
	}
	if err := idx.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	idx2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := idx2.Search(ctx, contract.Query{SearchTerms: []string{"distinctive_token_here"}})
	if err != nil {
		t.Fatalf("Search after reopen: %v", err)
	}
	if len(got) != 1 || got[0] != id {
		t.Fatalf("Search after reopen = %v, want [%s]", got, id)
	}
}

func TestClampToRuneBoundary(t *testing.T) {
	s := []byte("héllo") // 'é' is 2 bytes
	// byte offset 2 lands mid-rune inside 'é'.
	clamped := clampToRuneBoundary(s, 2)
	if clamped != 1 {
		t.Errorf("clampToRuneBoundary = %d, want 1", clamped)
	}
	snippet := Snippet(s, 3, 2)
	if len(snippet) == 0 {
		t.Error("expected non-empty snippet")
	}
	if !utf8.ValidString(snippet) {
		t.Errorf("snippet %q is not valid UTF-8", snippet)
	}
}

// TestSnippetBoxDrawingRegression covers spec §8.7 S6: a 3-byte box-drawing
// sequence (0xE2 0x95 0x90, '═') straddling byte offset 500, with
// max_snippet_chars=500 simulated as a fallback-from-start snippet (pos=250,
// radius=250 so the window is [0,500)). The middle byte of the sequence
// falls exactly on the clamp boundary; the result must still be valid
// UTF-8 with the trailing codepoint never split.
func TestSnippetBoxDrawingRegression(t *testing.T) {
	content := make([]byte, 700)
	for i := range content {
		content[i] = 'a'
	}
	copy(content[499:502], []byte{0xE2, 0x95, 0x90})

	snippet := Snippet(content, 250, 250)
	if len(snippet) > 502 {
		t.Errorf("snippet length = %d, want <= 502", len(snippet))
	}
	if !utf8.ValidString(snippet) {
		t.Fatalf("snippet is not valid UTF-8: %q", snippet)
	}
	for i, w := 0, 0; i < len(snippet); i += w {
		r, size := utf8.DecodeRuneInString(snippet[i:])
		if r == utf8.RuneError && size == 1 {
			t.Fatalf("split codepoint at byte %d in snippet %q", i, snippet)
		}
		w = size
	}
}
