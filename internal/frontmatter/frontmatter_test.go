package frontmatter_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/advisorhub/advisorhub/agent-control/internal/frontmatter"
)

const canonicalFile = `---
name: Spot Dev
slug: spot-dev
description: Development helper for the Spot app
agent_type: tool_qa
model: sonnet
tools:
  - Bash
  - Read
status: active
owner: platform-team
---
## Overview

Helps developers with the Spot app.
`

func TestParse_Canonical(t *testing.T) {
	doc, err := frontmatter.Parse([]byte(canonicalFile))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := doc.Fields["slug"]; got != "spot-dev" {
		t.Errorf("Fields[slug] = %v, want spot-dev", got)
	}
	if got := doc.Fields["name"]; got != "Spot Dev" {
		t.Errorf("Fields[name] = %v, want Spot Dev", got)
	}
	tools, ok := doc.Fields["tools"].([]any)
	if !ok {
		t.Fatalf("Fields[tools] = %T, want []any", doc.Fields["tools"])
	}
	if len(tools) != 2 || tools[0] != "Bash" || tools[1] != "Read" {
		t.Errorf("Fields[tools] = %v, want [Bash Read]", tools)
	}
	if !strings.HasPrefix(doc.Body, "## Overview") {
		t.Errorf("Body = %q, want to start with ## Overview", doc.Body)
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"no opening delimiter", "name: x\n---\nbody"},
		{"no closing delimiter", "---\nname: x\nbody"},
		{"nested map", "---\nname: x\nconfig:\n  temperature: 1\n---\nbody"},
		{"nested sequence", "---\ntools:\n  - [a, b]\n---\nbody"},
		{"invalid yaml", "---\nname: [unclosed\n---\nbody"},
		{"duplicate key", "---\nname: a\nname: b\n---\nbody"},
		{"not a map", "---\n- a\n- b\n---\nbody"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := frontmatter.Parse([]byte(tc.in))
			var malformed *frontmatter.MalformedError
			if !errors.As(err, &malformed) {
				t.Fatalf("Parse() error = %v, want *MalformedError", err)
			}
		})
	}
}

func TestSerialize_RoundTripIsByteIdentical(t *testing.T) {
	doc, err := frontmatter.Parse([]byte(canonicalFile))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out := frontmatter.Serialize(doc)
	if !bytes.Equal(out, []byte(canonicalFile)) {
		t.Errorf("Serialize(Parse(x)) != x\ngot:\n%s\nwant:\n%s", out, canonicalFile)
	}
}

func TestSerialize_ReordersToCanonical(t *testing.T) {
	// Keys deliberately out of canonical order.
	in := "---\nslug: spot-dev\nname: Spot Dev\nstatus: draft\n---\nbody\n"
	doc, err := frontmatter.Parse([]byte(in))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	first := frontmatter.Serialize(doc)

	want := "---\nname: Spot Dev\nslug: spot-dev\nstatus: draft\n---\nbody\n"
	if string(first) != want {
		t.Errorf("Serialize() = %q, want %q", first, want)
	}

	// Second round-trip is a fixed point.
	doc2, err := frontmatter.Parse(first)
	if err != nil {
		t.Fatalf("Parse(serialized) error = %v", err)
	}
	second := frontmatter.Serialize(doc2)
	if !bytes.Equal(first, second) {
		t.Errorf("second round-trip not stable:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestSerialize_PreservesUnknownKeys(t *testing.T) {
	in := "---\nname: Spot Dev\nslug: spot-dev\ncolor: teal\npriority: 3\n---\nbody\n"
	doc, err := frontmatter.Parse([]byte(in))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out := string(frontmatter.Serialize(doc))

	if !strings.Contains(out, "color: teal\n") {
		t.Errorf("unknown key color dropped:\n%s", out)
	}
	if !strings.Contains(out, "priority: 3\n") {
		t.Errorf("unknown key priority dropped:\n%s", out)
	}
	// Unknown keys come after the canonical block, in first-seen order.
	if strings.Index(out, "color:") > strings.Index(out, "priority:") {
		t.Errorf("unknown key order not preserved:\n%s", out)
	}
	if strings.Index(out, "slug:") > strings.Index(out, "color:") {
		t.Errorf("canonical keys must precede unknown keys:\n%s", out)
	}
}

func TestParse_EmptyBody(t *testing.T) {
	doc, err := frontmatter.Parse([]byte("---\nname: x\nslug: x\n---\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.Body != "" {
		t.Errorf("Body = %q, want empty", doc.Body)
	}
}

func TestSerialize_QuotesAwkwardScalars(t *testing.T) {
	doc, err := frontmatter.Parse([]byte("---\nname: x\nslug: x\ndescription: 'watch: this'\n---\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out := frontmatter.Serialize(doc)

	// The value must survive a second parse intact.
	doc2, err := frontmatter.Parse(out)
	if err != nil {
		t.Fatalf("Parse(serialized) error = %v", err)
	}
	if got := doc2.Fields["description"]; got != "watch: this" {
		t.Errorf("description = %v, want %q", got, "watch: this")
	}
}
