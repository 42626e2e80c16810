package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// NewSlug строит уникальный человекочитаемый идентификатор вида
// 202501021504_match_alpha-fc_bravo-fc_a1b2c3d4.
func NewSlug(kind string, parts ...string) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)

	slugged := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := slugify(p); s != "" {
			slugged = append(slugged, s)
		}
	}

	stamp := time.Now().UTC().Format("200601021504")
	if len(slugged) == 0 {
		return fmt.Sprintf("%s_%s_%s", stamp, kind, hex.EncodeToString(buf))
	}
	return fmt.Sprintf("%s_%s_%s_%s", stamp, kind, strings.Join(slugged, "_"), hex.EncodeToString(buf))
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
