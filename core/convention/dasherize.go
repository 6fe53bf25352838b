package convention

import (
	"strings"
	"unicode"
)

// Dasherize converts a camelCase, PascalCase or snake_case name into
// lowercase words separated by hyphens.
//
//	isPublic  -> is-public
//	createdAt -> created-at
//	imageURL  -> image-url
//	URLPath   -> url-path
//	post_tags -> post-tags
func Dasherize(name string) string {
	if name == "" {
		return ""
	}

	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range runes {
		switch {
		case r == '_' || r == ' ' || r == '-':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
			continue
		case unicode.IsUpper(r):
			if i > 0 && needsBreak(runes, i) && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// needsBreak reports whether an upper-case rune at i starts a new word:
// after a lower-case letter or digit ("isPublic"), or as the last capital of
// an acronym followed by a lower-case letter ("URLPath").
func needsBreak(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
		return true
	}
	return false
}

// ResourceType derives the JSON:API resource type for a model or relation
// name: the pluralized, dasherized form. Names that are already plural keep
// their plural form, so has-many relation names map onto the same type as
// their singular model ("tags" and "tag" both yield "tags").
func ResourceType(name string) string {
	if name == "" {
		return ""
	}
	return Dasherize(Pluralize(Singularize(name)))
}
