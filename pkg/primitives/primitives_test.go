// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package primitives

import (
	"strings"
	"testing"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
)

func TestNewPath_Valid(t *testing.T) {
	p, err := NewPath("docs/readme.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.String() != "docs/readme.md" {
		t.Errorf("String() = %q", p.String())
	}
}

func TestNewPath_NormalizesBackslashes(t *testing.T) {
	p, err := NewPath(`docs\readme.md`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.String() != "docs/readme.md" {
		t.Errorf("String() = %q, want docs/readme.md", p.String())
	}
}

func TestNewPath_Rejections(t *testing.T) {
	cases := []string{
		"",
		"../etc/passwd",
		"docs/../../etc/passwd",
		"/",
		".",
		"has\x00null",
		strings.Repeat("a", MaxPathBytes+1),
	}
	for _, c := range cases {
		if _, err := NewPath(c); !kerrors.Is(err, kerrors.ValidationFailed) {
			t.Errorf("NewPath(%q) = %v, want ValidationFailed", c, err)
		}
	}
}

func TestNewTitle_Valid(t *testing.T) {
	title, err := NewTitle("A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title.String() != "A" {
		t.Errorf("String() = %q", title.String())
	}
}

func TestNewTitle_Rejections(t *testing.T) {
	if _, err := NewTitle(""); !kerrors.Is(err, kerrors.ValidationFailed) {
		t.Error("expected empty title to fail validation")
	}
	if _, err := NewTitle(strings.Repeat("x", MaxTitleRunes+1)); !kerrors.Is(err, kerrors.ValidationFailed) {
		t.Error("expected over-long title to fail validation")
	}
}

func TestNewTag_Valid(t *testing.T) {
	tag, err := NewTag("backend")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	other, _ := NewTag("backend")
	if !tag.Equal(other) {
		t.Error("expected equal tags to compare equal")
	}
}

func TestNewTag_Rejections(t *testing.T) {
	cases := []string{"", "has space", "tab\ttab", strings.Repeat("x", MaxTagRunes+1)}
	for _, c := range cases {
		if _, err := NewTag(c); !kerrors.Is(err, kerrors.ValidationFailed) {
			t.Errorf("NewTag(%q) = %v, want ValidationFailed", c, err)
		}
	}
}
