package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zeebo/xxh3"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// BuildStableSymbolID creates a deterministic symbol ID.
// The ID is derived from identity fields plus a hash of the canonical
// signature, so it survives edits that only move a declaration.
func BuildStableSymbolID(unit *CodeUnit) string {
	if unit == nil {
		return ""
	}

	class := strings.TrimSpace(unit.Class)
	if class == "" {
		class = "_"
	}

	kind := strings.TrimSpace(unit.UnitType)
	if kind == "" {
		kind = "symbol"
	}

	name := strings.TrimSpace(unit.Name)
	if name == "" {
		name = "_"
	}

	fingerprint := strings.Join([]string{
		unit.Filepath,
		class,
		kind,
		name,
		canonicalize(unit.Signature),
	}, "|")

	return fmt.Sprintf("gd/%s:%s:%s:%016x", class, kind, name, xxh3.HashString(fingerprint))
}

func canonicalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return whitespaceRe.ReplaceAllString(s, " ")
}
