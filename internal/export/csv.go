// Package export renders report rows as the CSV dialect used by the admin
// and analytics downloads: a bare comma-joined header followed by one line
// per row whose fields are JSON-encoded values. Lines are joined with "\n"
// and there is no trailing newline.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tbourn/go-suggestion-box/internal/aggregate"
	"github.com/tbourn/go-suggestion-box/internal/domain"
)

// ContentType is the media type served for CSV downloads.
const ContentType = "text/csv; charset=utf-8"

// Table is a header plus rows keyed by header names.
type Table struct {
	Header []string
	Rows   []map[string]any
}

// WriteCSV writes header and rows to w. A nil or missing value is written
// as an empty JSON string.
func WriteCSV(w io.Writer, header []string, rows []map[string]any) error {
	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	for _, r := range rows {
		b.WriteByte('\n')
		for i, k := range header {
			if i > 0 {
				b.WriteByte(',')
			}
			field, err := encodeField(r[k])
			if err != nil {
				return fmt.Errorf("encode %s: %w", k, err)
			}
			b.WriteString(field)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Write renders t with WriteCSV.
func (t Table) Write(w io.Writer) error { return WriteCSV(w, t.Header, t.Rows) }

func encodeField(v any) (string, error) {
	if v == nil {
		v = ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return unescapeSeparators(strings.TrimSuffix(buf.String(), "\n")), nil
}

// unescapeSeparators turns the \u2028 and \u2029 escapes written by
// encoding/json back into raw characters. Escaped backslashes are skipped so
// a literal "\\u2028" in the input survives.
func unescapeSeparators(s string) string {
	if !strings.Contains(s, `\u202`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		if rest := s[i:]; strings.HasPrefix(rest, `\u2028`) {
			b.WriteString("\u2028")
			i += 5
			continue
		} else if strings.HasPrefix(rest, `\u2029`) {
			b.WriteString("\u2029")
			i += 5
			continue
		}
		b.WriteByte(s[i])
		b.WriteByte(s[i+1])
		i++
	}
	return b.String()
}

// FormatRelative renders t relative to now ("just now", "5 minutes ago",
// "3 weeks ago", ...). Every unit is pluralized.
func FormatRelative(t, now time.Time) string {
	secs := int64(now.Sub(t) / time.Second)
	switch {
	case secs < 60:
		return "just now"
	case secs < 3600:
		return fmt.Sprintf("%d minutes ago", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%d hours ago", secs/3600)
	case secs < 604800:
		return fmt.Sprintf("%d days ago", secs/86400)
	case secs < 2592000:
		return fmt.Sprintf("%d weeks ago", secs/604800)
	}
	return fmt.Sprintf("%d months ago", secs/2592000)
}

// AdminHeader is the column order of the review queue export.
var AdminHeader = []string{"id", "title", "status", "category", "author", "department", "createdAt", "votes", "comments"}

// AdminQueue builds the review queue export.
func AdminQueue(suggestions []domain.Suggestion, now time.Time) Table {
	rows := make([]map[string]any, 0, len(suggestions))
	for _, s := range suggestions {
		rows = append(rows, map[string]any{
			"id":         s.ID,
			"title":      s.Title,
			"status":     string(s.Status),
			"category":   s.Category,
			"author":     s.Author.Name,
			"department": s.Author.Department,
			"createdAt":  FormatRelative(s.CreatedAt, now),
			"votes":      s.Votes,
			"comments":   s.Comments,
		})
	}
	return Table{Header: AdminHeader, Rows: rows}
}

// Analytics table names accepted by AnalyticsTable.
const (
	TableCategories = "categories"
	TableSeries     = "series"
	TableFunnel     = "funnel"
	TableTags       = "tags"
)

// AnalyticsFilename returns the download name for an analytics table.
func AnalyticsFilename(name string) string {
	switch name {
	case TableCategories:
		return "category_distribution.csv"
	case TableSeries:
		return "submissions_over_time.csv"
	case TableFunnel:
		return "funnel.csv"
	case TableTags:
		return "top_tags.csv"
	}
	return "analytics.csv"
}

// AnalyticsTable extracts one chart table from a report. ok is false for
// unknown names.
func AnalyticsTable(a aggregate.Analytics, name string) (t Table, ok bool) {
	switch name {
	case TableCategories:
		t.Header = []string{"category", "count", "percentage"}
		for _, c := range a.CategoryDistribution {
			t.Rows = append(t.Rows, map[string]any{"category": c.Category, "count": c.Count, "percentage": c.Percentage})
		}
	case TableSeries:
		t.Header = []string{"date", "submissions"}
		for _, d := range a.Series {
			t.Rows = append(t.Rows, map[string]any{"date": d.Date, "submissions": d.Submissions})
		}
	case TableFunnel:
		t.Header = []string{"stage", "count"}
		for _, f := range a.Funnel {
			t.Rows = append(t.Rows, map[string]any{"stage": f.Stage, "count": f.Count})
		}
	case TableTags:
		t.Header = []string{"tag", "count"}
		for _, tc := range a.TopTags {
			t.Rows = append(t.Rows, map[string]any{"tag": tc.Tag, "count": tc.Count})
		}
	default:
		return Table{}, false
	}
	return t, true
}
