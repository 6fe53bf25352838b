package convention

import "strings"

// Pluralize returns the plural form of a word.
// Uses simple English pluralization rules backed by explicit irregular and
// uncountable tables. Only the trailing word of a camelCase or dasherized
// name is inflected ("blogPost" -> "blogPosts").
func Pluralize(word string) string {
	if word == "" {
		return ""
	}

	head, tail := splitLastWord(word)
	lower := strings.ToLower(tail)

	if uncountable[lower] {
		return word
	}

	// Check irregular plurals first
	if plural, ok := irregularPlurals[lower]; ok {
		return head + matchCase(tail, plural)
	}
	if _, ok := irregularSingulars[lower]; ok {
		return word
	}

	// Words ending in 's', 'x', 'z', 'ch', 'sh' → add 'es'
	if strings.HasSuffix(lower, "s") ||
		strings.HasSuffix(lower, "x") ||
		strings.HasSuffix(lower, "z") ||
		strings.HasSuffix(lower, "ch") ||
		strings.HasSuffix(lower, "sh") {
		return word + "es"
	}

	// Words ending in consonant + 'y' → change 'y' to 'ies'
	if strings.HasSuffix(lower, "y") && len(lower) > 1 {
		if !isVowel(rune(lower[len(lower)-2])) {
			return word[:len(word)-1] + "ies"
		}
	}

	if strings.HasSuffix(lower, "fe") {
		return word[:len(word)-2] + "ves"
	}
	if strings.HasSuffix(lower, "f") && !strings.HasSuffix(lower, "ff") {
		return word[:len(word)-1] + "ves"
	}

	return word + "s"
}

// Singularize returns the singular form of a word.
// Inverse of Pluralize. Words that are already singular according to the
// irregular table ("status", "analysis") or that end in "us" are returned
// unchanged.
func Singularize(word string) string {
	if word == "" {
		return ""
	}

	head, tail := splitLastWord(word)
	lower := strings.ToLower(tail)

	if uncountable[lower] {
		return word
	}
	if _, ok := irregularPlurals[lower]; ok {
		return word
	}
	if singular, ok := irregularSingulars[lower]; ok {
		return head + matchCase(tail, singular)
	}

	switch {
	case strings.HasSuffix(lower, "ies") && len(lower) > 3:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(lower, "ves"):
		return word[:len(word)-3] + "f"
	case strings.HasSuffix(lower, "sses"),
		strings.HasSuffix(lower, "xes"),
		strings.HasSuffix(lower, "zes"),
		strings.HasSuffix(lower, "ches"),
		strings.HasSuffix(lower, "shes"):
		return word[:len(word)-2]
	case strings.HasSuffix(lower, "us"):
		// English plurals do not end in "us"; "radius" is already singular.
		return word
	case strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss"):
		return word[:len(word)-1]
	}

	return word
}

// splitLastWord splits a camelCase, snake_case or dasherized name into the
// part before its last word and the last word itself.
func splitLastWord(word string) (string, string) {
	cut := 0
	for i := len(word) - 1; i > 0; i-- {
		c := word[i]
		if c == '-' || c == '_' {
			cut = i + 1
			break
		}
		if c >= 'A' && c <= 'Z' && word[i-1] >= 'a' && word[i-1] <= 'z' {
			cut = i
			break
		}
	}
	return word[:cut], word[cut:]
}

// matchCase capitalizes replacement when original starts with a capital.
func matchCase(original, replacement string) string {
	if original != "" && original[0] >= 'A' && original[0] <= 'Z' {
		return strings.ToUpper(replacement[:1]) + replacement[1:]
	}
	return replacement
}

// isVowel returns true if the rune is a vowel.
func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return true
	default:
		return false
	}
}

// Common irregular plurals.
var irregularPlurals = map[string]string{
	"person":   "people",
	"man":      "men",
	"woman":    "women",
	"child":    "children",
	"foot":     "feet",
	"tooth":    "teeth",
	"goose":    "geese",
	"mouse":    "mice",
	"ox":       "oxen",
	"index":    "indices",
	"matrix":   "matrices",
	"vertex":   "vertices",
	"analysis": "analyses",
	"crisis":   "crises",
	"thesis":   "theses",
	"datum":    "data",
	"medium":   "media",
	"schema":   "schemas",
	"status":   "statuses",
	"bus":      "buses",
	"bonus":    "bonuses",
	"campus":   "campuses",
	"census":   "censuses",
	"virus":    "viruses",
	"corpus":   "corpora",
	"alias":    "aliases",
	"quiz":     "quizzes",
	"chief":    "chiefs",
	"roof":     "roofs",
	"belief":   "beliefs",
	"hero":     "heroes",
	"potato":   "potatoes",
}

// Words whose plural and singular forms are identical.
var uncountable = map[string]bool{
	"news":        true,
	"series":      true,
	"species":     true,
	"sheep":       true,
	"fish":        true,
	"equipment":   true,
	"information": true,
	"metadata":    true,
	"feedback":    true,
}

var irregularSingulars = func() map[string]string {
	m := make(map[string]string, len(irregularPlurals))
	for singular, plural := range irregularPlurals {
		m[plural] = singular
	}
	return m
}()
