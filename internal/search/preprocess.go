package search

import (
	"strings"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

// DefaultStopwords are dropped before scoring.
var DefaultStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "in", "into",
	"is", "it", "of", "on", "or", "our", "the", "to", "we", "will", "with",
}

// SuggestionDoc flattens the searchable fields of a suggestion (title,
// problem, cause, solution, category and tags) into one document.
func SuggestionDoc(s domain.Suggestion) Doc {
	var b strings.Builder
	for _, part := range []string{s.Title, s.Problem, s.Cause, s.Solution, s.Category} {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteString(part)
			b.WriteByte('\n')
		}
	}
	for _, t := range s.Tags {
		b.WriteString(t)
		b.WriteByte(' ')
	}
	return Doc{ID: s.ID, Text: b.String()}
}

// SuggestionDocs maps SuggestionDoc over a list.
func SuggestionDocs(items []domain.Suggestion) []Doc {
	out := make([]Doc, len(items))
	for i, s := range items {
		out[i] = SuggestionDoc(s)
	}
	return out
}
