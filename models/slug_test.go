package models

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSlugFormat(t *testing.T) {
	slug := NewSlug("match", "Alpha FC", "Bravo FC")
	assert.Regexp(t, regexp.MustCompile(`^\d{12}_match_alpha-fc_bravo-fc_[0-9a-f]{8}$`), slug)
}

func TestNewSlugWithoutParts(t *testing.T) {
	slug := NewSlug("tournament")
	assert.Regexp(t, regexp.MustCompile(`^\d{12}_tournament_[0-9a-f]{8}$`), slug)
}

func TestNewSlugUnique(t *testing.T) {
	a := NewSlug("match", "same")
	b := NewSlug("match", "same")
	assert.NotEqual(t, a, b, "random suffix must differ")
}

func TestSlugifyStripsPunctuation(t *testing.T) {
	slug := NewSlug("team", "  FC!! Dreams 2025  ")
	assert.Contains(t, slug, "_fc-dreams-2025_")
}
