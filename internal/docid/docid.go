// Package docid derives document ids and canonical URLs from directory placement.
//
// Ids are never taken from metadata: two files can only share an id when they
// share a location, which keeps routes collision-free.
package docid

import (
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Country returns the id of a country overview.
func Country(vertical, country string) string {
	return join(vertical, country)
}

// Program returns the id of a program document.
func Program(vertical, country, program string) string {
	return join(vertical, country, program)
}

// Hub returns the id of an editorial entry.
func Hub(hubKind, slug string) string {
	return join(hubKind, slug)
}

// URL returns the canonical URL for id.
func URL(id string) string {
	return "/" + Clean(id)
}

// Clean normalizes an id or URL path given by a caller: slashes are unified,
// surrounding slashes and a file extension are removed.
func Clean(id string) string {
	id = filepath.ToSlash(strings.TrimSpace(id))
	id = path.Clean("/" + id)
	id = strings.Trim(id, "/")
	if ext := path.Ext(id); ext == ".mdx" || ext == ".md" {
		id = strings.TrimSuffix(id, ext)
	}
	return id
}

// SlugFromFile returns the file name without extension.
func SlugFromFile(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Humanize turns a slug into a title-cased label ("golden-visa" -> "Golden Visa").
func Humanize(slug string) string {
	words := strings.FieldsFunc(strings.TrimPrefix(slug, "_"), func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func join(parts ...string) string {
	return Clean(strings.Join(parts, "/"))
}
