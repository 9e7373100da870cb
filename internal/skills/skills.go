// Package skills normalizes the free-text skill tags used on profiles and
// opportunities. Tags compare by exact equality after normalization.
package skills

import (
	"strings"

	"skillbridge-backend/internal/domain"
)

// ErrInvalidSkill is returned for tags that are empty after trimming.
var ErrInvalidSkill = domain.NewError(domain.KindValidation, "skill tag must not be empty")

var catalogue = []string{
	"Web Development",
	"Design",
	"Marketing",
	"Translation",
	"Event Planning",
	"Writing",
	"Teaching",
}

// Normalize lower-cases raw, trims it and collapses internal whitespace.
func Normalize(raw string) (string, error) {
	tag := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	if tag == "" {
		return "", ErrInvalidSkill
	}
	return tag, nil
}

// CanonicalSet normalizes every tag and drops duplicates, keeping the first
// occurrence so display order survives.
func CanonicalSet(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		tag, err := Normalize(r)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out, nil
}

// Lenient is CanonicalSet for read paths: malformed tags are dropped instead
// of failing the whole set.
func Lenient(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		tag, err := Normalize(r)
		if err != nil {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Catalogue returns the suggested tags offered when browsing, normalized.
func Catalogue() []string {
	return Lenient(catalogue)
}
