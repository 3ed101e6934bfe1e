package token

import (
	"testing"
)

func TestGenerate(t *testing.T) {
	tok, err := Generate("mnebula_")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(tok) != len("mnebula_")+SuffixLength {
		t.Errorf("Generate() length = %d, want %d", len(tok), len("mnebula_")+SuffixLength)
	}
	if !FormatValid(tok) {
		t.Errorf("Generate() produced %q, not accepted by FormatValid", tok)
	}

	tok2, _ := Generate("mnebula_")
	if tok == tok2 {
		t.Error("Generate() produced duplicate tokens")
	}
}

func TestFormatValid(t *testing.T) {
	tests := []struct {
		name string
		tok  string
		want bool
	}{
		{"empty", "", false},
		{"prefixed new format", "mnebula_abcdefghij0123456789abcdefghij12", true},
		{"legacy mixed case", "AbCdEfGh12345678901234567890123456789012", true},
		{"too short legacy", "short", false},
		{"prefix too short", "a_abcdefghij0123456789abcdefghij12", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValid(tt.tok); got != tt.want {
				t.Errorf("FormatValid(%q) = %v, want %v", tt.tok, got, tt.want)
			}
		})
	}
}

func TestHash(t *testing.T) {
	tok := "mnebula_abcdefghij0123456789abcdefghij12"
	secret := "test-secret-key"

	hash := Hash(tok, secret)
	if len(hash) != 64 {
		t.Errorf("Hash() length = %d, want 64", len(hash))
	}

	if Hash(tok, secret) != hash {
		t.Error("Hash() not deterministic")
	}
	if Hash(tok, "different-secret") == hash {
		t.Error("Hash() same for different secrets")
	}
}

func TestValidate(t *testing.T) {
	secret := "test-secret-key-for-validation"
	tok := "mnebula_abcdefghij0123456789abcdefghij12"
	hash := Hash(tok, secret)

	tests := []struct {
		name       string
		provided   string
		secret     string
		storedHash string
		want       bool
	}{
		{"valid token", tok, secret, hash, true},
		{"wrong token", "mnebula_zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", secret, hash, false},
		{"wrong secret", tok, "wrong-secret", hash, false},
		{"empty token", "", secret, hash, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.provided, tt.secret, tt.storedHash); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("mnebula_abcdefghij0123456789"); got != "mnebula_abcd" {
		t.Errorf("Preview() = %q, want %q", got, "mnebula_abcd")
	}
	if got := Preview("short"); got != "short" {
		t.Errorf("Preview() = %q, want %q", got, "short")
	}
}

func BenchmarkGenerate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Generate("mnebula_")
	}
}

func BenchmarkHash(b *testing.B) {
	tok := "mnebula_abcdefghij0123456789abcdefghij12"
	secret := "benchmark-secret-key"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Hash(tok, secret)
	}
}
