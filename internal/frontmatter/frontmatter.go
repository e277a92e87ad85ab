// Package frontmatter implements the on-disk agent file format: a YAML
// front-matter block delimited by "---" lines followed by a Markdown body.
//
// The codec is deliberately strict in both directions. Parsing rejects
// anything that is not a flat map of scalars and scalar sequences — the
// provider adapters rely on that simplification. Serialization emits keys
// in a fixed canonical order so that re-serializing an unchanged document
// is byte-identical, which is what lets the fingerprint treat "no semantic
// change" as a no-op.
package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// canonicalOrder is the fixed key order on write. Unknown keys are preserved
// after the canonical block, in the order they were first seen.
var canonicalOrder = []string{
	"name",
	"slug",
	"description",
	"agent_type",
	"model",
	"tools",
	"status",
	"owner",
}

// MalformedError reports a file that does not conform to the front-matter
// format: missing delimiters, unparsable YAML, or nested structures.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "malformed front matter: " + e.Reason
}

// Document is the parsed form of an agent file: a flat field map plus the
// Markdown body. Field values are string, bool, int, float64 or []any of
// those.
type Document struct {
	Fields map[string]any
	Body   string

	// extras preserves the first-seen order of non-canonical keys so that
	// round-tripping a hand-edited file keeps them stable.
	extras []string
}

// Parse splits raw file bytes into front-matter fields and body. It fails
// with *MalformedError when the file does not open with a delimited YAML
// block or the YAML is not a flat map of scalars/sequences.
func Parse(raw []byte) (*Document, error) {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	if !strings.HasPrefix(text, delimiter+"\n") {
		return nil, &MalformedError{Reason: "file must begin with a --- line"}
	}
	rest := text[len(delimiter)+1:]
	end := strings.Index(rest, "\n"+delimiter+"\n")
	var yamlPart, body string
	switch {
	case end >= 0:
		yamlPart = rest[:end+1]
		body = rest[end+len(delimiter)+2:]
	case strings.HasSuffix(rest, "\n"+delimiter):
		yamlPart = rest[:len(rest)-len(delimiter)]
		body = ""
	default:
		return nil, &MalformedError{Reason: "closing --- delimiter not found"}
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(yamlPart), &root); err != nil {
		return nil, &MalformedError{Reason: "invalid YAML: " + err.Error()}
	}
	if len(root.Content) == 0 {
		return nil, &MalformedError{Reason: "front matter is empty"}
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, &MalformedError{Reason: "front matter must be a key/value map"}
	}

	doc := &Document{Fields: make(map[string]any, len(mapping.Content)/2)}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode, valNode := mapping.Content[i], mapping.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, &MalformedError{Reason: "front-matter keys must be scalars"}
		}
		key := keyNode.Value
		if _, dup := doc.Fields[key]; dup {
			return nil, &MalformedError{Reason: fmt.Sprintf("duplicate key %q", key)}
		}
		val, err := decodeFlat(key, valNode)
		if err != nil {
			return nil, err
		}
		doc.Fields[key] = val
		if !isCanonical(key) {
			doc.extras = append(doc.extras, key)
		}
	}
	doc.Body = body
	return doc, nil
}

// decodeFlat decodes a value node, rejecting nested maps and nested
// sequences. Sequences may only contain scalars.
func decodeFlat(key string, node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, &MalformedError{Reason: fmt.Sprintf("key %q: %v", key, err)}
		}
		return v, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, &MalformedError{Reason: fmt.Sprintf("key %q: sequences may only contain scalars", key)}
			}
			var v any
			if err := item.Decode(&v); err != nil {
				return nil, &MalformedError{Reason: fmt.Sprintf("key %q: %v", key, err)}
			}
			items = append(items, v)
		}
		return items, nil
	default:
		return nil, &MalformedError{Reason: fmt.Sprintf("key %q: nested objects are not permitted in front matter", key)}
	}
}

// Serialize renders the document back into file bytes: canonical keys in
// fixed order, then preserved unknown keys, then the body. The output is
// deterministic for a given document.
func Serialize(doc *Document) []byte {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")

	for _, key := range canonicalOrder {
		if val, ok := doc.Fields[key]; ok {
			writeField(&buf, key, val)
		}
	}
	for _, key := range doc.extraKeys() {
		writeField(&buf, key, doc.Fields[key])
	}

	buf.WriteString(delimiter + "\n")
	buf.WriteString(doc.Body)
	return buf.Bytes()
}

// extraKeys returns the non-canonical keys to serialize: first the ones
// whose order was observed at parse time, then any remaining ones sorted,
// so programmatically-added keys still serialize deterministically.
func (d *Document) extraKeys() []string {
	seen := make(map[string]bool, len(d.extras))
	keys := make([]string, 0, len(d.extras))
	for _, k := range d.extras {
		if _, ok := d.Fields[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range d.Fields {
		if !isCanonical(k) && !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func writeField(buf *bytes.Buffer, key string, val any) {
	if items, ok := val.([]any); ok {
		buf.WriteString(key + ":\n")
		for _, item := range items {
			buf.WriteString("  - " + renderScalar(item) + "\n")
		}
		return
	}
	if items, ok := val.([]string); ok {
		buf.WriteString(key + ":\n")
		for _, item := range items {
			buf.WriteString("  - " + renderScalar(item) + "\n")
		}
		return
	}
	buf.WriteString(key + ": " + renderScalar(val) + "\n")
}

// renderScalar delegates quoting decisions to the YAML encoder so values
// containing colons, hashes or leading symbols stay parseable.
func renderScalar(val any) string {
	out, err := yaml.Marshal(val)
	if err != nil {
		return fmt.Sprintf("%v", val)
	}
	return strings.TrimSuffix(string(out), "\n")
}

func isCanonical(key string) bool {
	for _, k := range canonicalOrder {
		if k == key {
			return true
		}
	}
	return false
}
