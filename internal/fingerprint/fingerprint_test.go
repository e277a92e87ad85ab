package fingerprint_test

import (
	"testing"

	"github.com/advisorhub/advisorhub/agent-control/internal/fingerprint"
)

func TestSum_Stable(t *testing.T) {
	raw := []byte("---\nname: x\n---\nbody")
	if fingerprint.Sum(raw) != fingerprint.Sum(raw) {
		t.Error("Sum() not deterministic for identical input")
	}
}

func TestSum_SensitiveToAnyChange(t *testing.T) {
	base := fingerprint.Sum([]byte("---\nname: x\n---\nbody"))

	cases := map[string]string{
		"field change":      "---\nname: y\n---\nbody",
		"body change":       "---\nname: x\n---\nbody!",
		"whitespace change": "---\nname:  x\n---\nbody",
	}
	for name, in := range cases {
		if fingerprint.Sum([]byte(in)) == base {
			t.Errorf("%s: fingerprint did not change", name)
		}
	}
}

func TestSum_HexEncoded(t *testing.T) {
	got := fingerprint.Sum([]byte("x"))
	if len(got) != 64 {
		t.Errorf("Sum() length = %d, want 64 hex chars", len(got))
	}
}
