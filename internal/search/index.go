// Package search provides a small, deterministic, concurrency-safe
// in-memory index used to find suggestions similar to a given one.
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options for stop words and document caps
//   - Immutable after construction (safe for concurrent use)
//   - Deterministic ordering for ties
//
// Scoring uses Jaccard similarity between the query token set and each
// document token set: score = |Q ∩ D| / |Q ∪ D|.
package search

import (
	"regexp"
	"sort"
	"strings"
)

// Doc is an indexed document.
type Doc struct {
	ID   string
	Text string
}

// Result is a ranked document with its similarity score.
type Result struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	// TopK ranks documents against free text.
	TopK(query string, k int) []Result
	// Similar ranks documents against the document with the given id,
	// excluding that document.
	Similar(id string, k int) []Result
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	maxDocs   int
}

func defaultConfig() config {
	return config{
		stopwords: toSet(DefaultStopwords),
		maxDocs:   0,
	}
}

// WithStopwords replaces the stop-word list. An empty list keeps the default.
func WithStopwords(words []string) Option {
	return func(c *config) {
		if m := toSet(words); len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithoutStopwords disables stop-word removal.
func WithoutStopwords() Option {
	return func(c *config) { c.stopwords = nil }
}

func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			m[w] = struct{}{}
		}
	}
	return m
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	id     string
	tokens map[string]struct{}
}

type index struct {
	cfg  config
	docs []doc
	byID map[string]int
}

// NewIndex builds an Index from docs. Documents without tokens are skipped.
func NewIndex(docs []Doc, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	idx := &index{cfg: cfg, byID: make(map[string]int, len(docs))}
	for _, d := range docs {
		toks := tokenize(d.Text, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		idx.byID[d.ID] = len(idx.docs)
		idx.docs = append(idx.docs, doc{id: d.ID, tokens: toks})
		if cfg.maxDocs > 0 && len(idx.docs) >= cfg.maxDocs {
			break
		}
	}
	return idx
}

// TopK returns up to k best-matching documents by Jaccard similarity.
func (i *index) TopK(q string, k int) []Result {
	if strings.TrimSpace(q) == "" {
		return nil
	}
	return i.rank(tokenize(q, i.cfg.stopwords), "", k)
}

func (i *index) Similar(id string, k int) []Result {
	pos, ok := i.byID[id]
	if !ok {
		return nil
	}
	return i.rank(i.docs[pos].tokens, id, k)
}

func (i *index) rank(qTokens map[string]struct{}, skipID string, k int) []Result {
	if len(i.docs) == 0 || len(qTokens) == 0 {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qLen := len(qTokens)

	buf := make([]Result, 0, min(k*4, len(i.docs)))
	for _, d := range i.docs {
		if d.id == skipID {
			continue
		}
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + len(d.tokens) - over)
		if union <= 0 {
			continue
		}
		buf = append(buf, Result{ID: d.id, Score: float64(over) / union})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].Score != buf[b].Score {
			return buf[a].Score > buf[b].Score
		}
		return buf[a].ID < buf[b].ID
	})

	if k > len(buf) {
		k = len(buf)
	}
	return buf[:k]
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
