package nebulayaml

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestBlockMarshalsAsLiteralStyle(t *testing.T) {
	type doc struct {
		Cert Block `yaml:"cert"`
	}

	out, err := yaml.Marshal(doc{Cert: "-----BEGIN CERT-----\nAAAA\n-----END CERT-----\n"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	s := string(out)
	if !strings.Contains(s, "cert: |") {
		t.Errorf("expected literal block style, got:\n%s", s)
	}
	if !strings.Contains(s, "-----BEGIN CERT-----") {
		t.Errorf("PEM content not preserved:\n%s", s)
	}
}

func TestBlockRoundTrip(t *testing.T) {
	original := Block("line one\nline two\n")
	out, err := yaml.Marshal(struct {
		V Block `yaml:"v"`
	}{V: original})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded struct {
		V string `yaml:"v"`
	}
	if err := yaml.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.V != string(original) {
		t.Errorf("round trip mismatch: got %q, want %q", decoded.V, string(original))
	}
}
