package ingest

import (
	"regexp"
	"strings"
)

var nonWord = regexp.MustCompile(`\W+`)

// cacheNamespacePrefix marks the auxiliary namespace holding cached
// question/answer vectors for a document.
const cacheNamespacePrefix = "question_cached_"

// Namespace derives the content namespace for a document URL: runs of
// non-alphanumeric characters collapse to underscores, edges are
// trimmed, and the result is case-folded. Deterministic, so the same
// URL always maps to the same namespace.
func Namespace(url string) string {
	slug := nonWord.ReplaceAllString(url, "_")
	slug = strings.Trim(slug, "_")
	return strings.ToLower(slug)
}

// CacheNamespace derives the semantic-cache namespace from a content
// namespace.
func CacheNamespace(contentNamespace string) string {
	return cacheNamespacePrefix + contentNamespace
}
