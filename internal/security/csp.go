// Package security builds the Content-Security-Policy sent with preview
// pages and the nonces that authorise their inline scripts.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// Stylesheet and font origins the presentation layout loads from.
var cdnOrigins = []string{"https://cdn.jsdelivr.net", "https://cdnjs.cloudflare.com"}

// GenerateNonce produces a 16-byte cryptographically random nonce,
// returned as a base64-encoded string.
func GenerateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// CSPPolicy holds the directives for a Content-Security-Policy header.
type CSPPolicy struct {
	DefaultSrc []string
	ScriptSrc  []string
	StyleSrc   []string
	ImgSrc     []string
	FontSrc    []string
	ConnectSrc []string
	BaseURI    []string
	FrameAnc   []string
}

// String serializes the policy to a CSP header value. Empty directives are
// left out.
func (p *CSPPolicy) String() string {
	var directives []string
	add := func(name string, values []string) {
		if len(values) > 0 {
			directives = append(directives, name+" "+strings.Join(values, " "))
		}
	}
	add("default-src", p.DefaultSrc)
	add("script-src", p.ScriptSrc)
	add("style-src", p.StyleSrc)
	add("img-src", p.ImgSrc)
	add("font-src", p.FontSrc)
	add("connect-src", p.ConnectSrc)
	add("base-uri", p.BaseURI)
	add("frame-ancestors", p.FrameAnc)
	return strings.Join(directives, "; ")
}

// PreviewPolicy returns the policy for pages served by the preview server.
// Only the live reload script, authorised by nonce, may run inline; the
// WebSocket it opens is allowed on port.
func PreviewPolicy(nonce string, port int) *CSPPolicy {
	return &CSPPolicy{
		DefaultSrc: []string{"'none'"},
		ScriptSrc:  []string{"'self'", fmt.Sprintf("'nonce-%s'", nonce)},
		StyleSrc:   append([]string{"'self'", "'unsafe-inline'"}, cdnOrigins...),
		ImgSrc:     []string{"'self'", "data:"},
		FontSrc:    append([]string{"'self'"}, cdnOrigins...),
		ConnectSrc: []string{"'self'", fmt.Sprintf("ws://localhost:%d", port), fmt.Sprintf("ws://127.0.0.1:%d", port)},
		BaseURI:    []string{"'self'"},
		FrameAnc:   []string{"'none'"},
	}
}
