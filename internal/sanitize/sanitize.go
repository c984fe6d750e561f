// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sanitize folds paper titles into strings safe for filenames.
package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Title returns title in a form safe for use inside a filename: every "/"
// becomes "_", the text is NFKC-normalized, and any rune left outside ASCII
// is dropped. Compatibility characters with an ASCII form survive (ligatures,
// full-width letters); composed accented letters do not. The result carries
// no length limit; callers pair it with a short file identifier.
func Title(title string) string {
	flat := strings.ReplaceAll(title, "/", "_")
	fold := transform.Chain(norm.NFKC, runes.Remove(runes.Predicate(nonASCII)))
	// Neither transformer fails: invalid UTF-8 is replaced during
	// normalization and the replacement rune is then dropped.
	folded, _, _ := transform.String(fold, flat)
	return folded
}

func nonASCII(r rune) bool {
	return r > unicode.MaxASCII
}
