package security

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestGenerateNonce_Length(t *testing.T) {
	nonce, err := GenerateNonce()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil {
		t.Fatalf("nonce is not valid base64: %v", err)
	}
	if len(decoded) != 16 {
		t.Errorf("expected 16 decoded bytes, got %d", len(decoded))
	}
}

func TestGenerateNonce_Unique(t *testing.T) {
	n1, err := GenerateNonce()
	if err != nil {
		t.Fatal(err)
	}
	n2, err := GenerateNonce()
	if err != nil {
		t.Fatal(err)
	}
	if n1 == n2 {
		t.Error("two consecutive nonces should not be equal")
	}
}

func TestCSPPolicy_String(t *testing.T) {
	p := &CSPPolicy{
		DefaultSrc: []string{"'none'"},
		ScriptSrc:  []string{"'self'"},
		ImgSrc:     []string{"'self'", "data:"},
	}
	got := p.String()
	want := "default-src 'none'; script-src 'self'; img-src 'self' data:"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestPreviewPolicy(t *testing.T) {
	s := PreviewPolicy("abc123", 4000).String()

	for _, want := range []string{
		"script-src 'self' 'nonce-abc123'",
		"style-src 'self' 'unsafe-inline' https://cdn.jsdelivr.net https://cdnjs.cloudflare.com",
		"font-src 'self' https://cdn.jsdelivr.net https://cdnjs.cloudflare.com",
		"ws://localhost:4000",
		"frame-ancestors 'none'",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("policy missing %q: %s", want, s)
		}
	}
}

func TestPreviewPolicy_DoesNotShareSlices(t *testing.T) {
	a := PreviewPolicy("a", 1)
	b := PreviewPolicy("b", 2)
	a.StyleSrc[0] = "changed"
	if b.StyleSrc[0] != "'self'" {
		t.Error("policies must not share directive slices")
	}
}
