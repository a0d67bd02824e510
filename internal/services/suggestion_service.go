// Package services – SuggestionService
//
// This file implements the suggestion lifecycle: submission, voting,
// comments, admin status changes, edits and deletion. Every operation
// validates its input before the first write and updates the side records
// (author points, session counters, notifications) inside the shared
// service lock, so an operation either fully applies or is rejected.
//
// Observability: public methods are OpenTelemetry-instrumented and
// state-changing events are logged at info level.
package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-suggestion-box/internal/aggregate"
	"github.com/tbourn/go-suggestion-box/internal/domain"
	"github.com/tbourn/go-suggestion-box/internal/repo"
	"github.com/tbourn/go-suggestion-box/internal/search"
	"github.com/tbourn/go-suggestion-box/internal/sentiment"
)

const tracerSuggestions = "services/SuggestionService"

// SubmitInput carries the submission form.
type SubmitInput struct {
	Title    string   `json:"title"`
	Problem  string   `json:"problem"`
	Cause    string   `json:"cause,omitempty"`
	Solution string   `json:"solution"`
	Benefit  string   `json:"benefit,omitempty"`
	Category string   `json:"category"`
	Tags     []string `json:"tags,omitempty"`
	Language string   `json:"language,omitempty"`
}

// SuggestionPatch is a partial admin edit. Nil fields are left as is.
type SuggestionPatch struct {
	Title    *string   `json:"title,omitempty"`
	Problem  *string   `json:"problem,omitempty"`
	Cause    *string   `json:"cause,omitempty"`
	Solution *string   `json:"solution,omitempty"`
	Benefit  *string   `json:"benefit,omitempty"`
	Category *string   `json:"category,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	Language *string   `json:"language,omitempty"`
}

// VoteResult is the state after a vote toggle.
type VoteResult struct {
	Votes int  `json:"votes"`
	Voted bool `json:"voted"`
}

// ListQuery selects and pages suggestions.
type ListQuery struct {
	Filter   aggregate.Filter
	Sort     string
	Page     int
	PageSize int
}

// Similar is a suggestion ranked by textual overlap with another one.
type Similar struct {
	Suggestion domain.Suggestion `json:"suggestion"`
	Score      float64           `json:"score"`
}

// SuggestionService owns the suggestion lifecycle.
type SuggestionService struct {
	Store         *repo.Store
	Engine        *aggregate.Engine
	Notifications *NotificationService

	IdempotencyTTL time.Duration

	mu    *sync.Mutex
	rndMu sync.Mutex
	rnd   *rand.Rand
}

// Submit validates in, classifies its sentiment and stores it as a pending
// suggestion authored by the session user.
//
// With a non-empty idemKey, a repeated submission by the same user within
// IdempotencyTTL returns the original suggestion and replayed=true.
func (s *SuggestionService) Submit(ctx context.Context, in SubmitInput, idemKey string) (sg domain.Suggestion, replayed bool, err error) {
	ctx, span := otel.Tracer(tracerSuggestions).Start(ctx, "Submit")
	defer span.End()

	in.Title = strings.TrimSpace(in.Title)
	in.Problem = strings.TrimSpace(in.Problem)
	in.Solution = strings.TrimSpace(in.Solution)
	in.Category = strings.TrimSpace(in.Category)
	for _, f := range []struct{ name, v string }{
		{"title", in.Title}, {"problem", in.Problem}, {"solution", in.Solution}, {"category", in.Category},
	} {
		if f.v == "" {
			return domain.Suggestion{}, false, fmt.Errorf("%w: %s is required", ErrValidation, f.name)
		}
	}
	lang, err := parseLanguage(in.Language)
	if err != nil {
		return domain.Suggestion{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok, err := s.Store.Session.Get(ctx)
	if err != nil {
		return domain.Suggestion{}, false, err
	}
	if !ok {
		return domain.Suggestion{}, false, ErrNoCurrentUser
	}

	if idemKey != "" {
		rec, found, err := s.Store.GetIdempotency(ctx, user.Email, idemKey, s.Store.Now())
		if err != nil {
			return domain.Suggestion{}, false, err
		}
		if found {
			prev, ok, err := s.Store.Suggestions.GetByID(ctx, rec.SuggestionID)
			if err != nil {
				return domain.Suggestion{}, false, err
			}
			if ok {
				return prev, true, nil
			}
		}
	}

	benefit := strings.TrimSpace(in.Benefit)
	created, err := s.Store.Suggestions.Create(ctx, domain.Suggestion{
		Title:     in.Title,
		Problem:   in.Problem,
		Cause:     strings.TrimSpace(in.Cause),
		Solution:  in.Solution,
		Benefit:   benefit,
		Author:    user.AuthorSnapshot(),
		Status:    domain.StatusPending,
		Category:  in.Category,
		Sentiment: sentiment.Classify(in.Problem, in.Solution, benefit),
		Tags:      normalizeTags(in.Tags),
		Language:  lang,
	})
	if err != nil {
		return domain.Suggestion{}, false, err
	}

	if idemKey != "" {
		if _, err := s.Store.CreateIdempotency(ctx, user.Email, idemKey, created.ID, s.IdempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			return domain.Suggestion{}, false, err
		}
	}

	if _, err := s.Store.Session.Update(ctx, func(u *domain.User) { u.SuggestionsCount++ }); err != nil {
		return domain.Suggestion{}, false, err
	}

	suggestionsSubmitted.Inc()
	log.Info().
		Str("suggestion_id", created.ID).
		Str("category", created.Category).
		Str("sentiment", string(created.Sentiment)).
		Msg("suggestion submitted")
	return created, false, nil
}

// Vote toggles voter's vote on the suggestion. A new vote by someone other
// than the author notifies the author. When voter is the session user the
// session points move by PointsPerVote in the same direction.
func (s *SuggestionService) Vote(ctx context.Context, id, voter string) (VoteResult, error) {
	ctx, span := otel.Tracer(tracerSuggestions).Start(ctx, "Vote",
		trace.WithAttributes(attribute.String("suggestion.id", id)))
	defer span.End()

	voter = strings.TrimSpace(voter)
	if voter == "" {
		return VoteResult{}, fmt.Errorf("%w: voter is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var voted bool
	updated, ok, err := s.Store.Suggestions.Update(ctx, id, func(sg *domain.Suggestion) {
		if sg.HasVoted(voter) {
			kept := make([]string, 0, len(sg.VotedBy))
			for _, v := range sg.VotedBy {
				if v != voter {
					kept = append(kept, v)
				}
			}
			sg.VotedBy = kept
			if sg.Votes > 0 {
				sg.Votes--
			}
			return
		}
		voted = true
		sg.VotedBy = append(sg.VotedBy, voter)
		sg.Votes++
	})
	if err != nil {
		return VoteResult{}, err
	}
	if !ok {
		return VoteResult{}, ErrSuggestionNotFound
	}

	if voted && updated.Author.Email != voter {
		if _, err := s.Notifications.Create(ctx, updated.Author.Email, domain.NotificationVote,
			"New Vote", fmt.Sprintf(`Someone voted on your suggestion: "%s"`, updated.Title), updated.ID); err != nil {
			return VoteResult{}, err
		}
	}

	cur, hasSession, err := s.Store.Session.Get(ctx)
	if err != nil {
		return VoteResult{}, err
	}
	if hasSession && cur.Email == voter {
		delta := domain.PointsPerVote
		if !voted {
			delta = -delta
		}
		if _, err := s.Store.Session.Update(ctx, func(u *domain.User) { u.Points += delta }); err != nil {
			return VoteResult{}, err
		}
	}

	direction := "up"
	if !voted {
		direction = "down"
	}
	suggestionVotes.WithLabelValues(direction).Inc()
	return VoteResult{Votes: updated.Votes, Voted: voted}, nil
}

// Comment adds a comment and refreshes the suggestion's comment count from
// the stored comments. A comment by someone other than the author notifies
// the author.
func (s *SuggestionService) Comment(ctx context.Context, id string, author domain.Author, content string) (domain.Comment, error) {
	ctx, span := otel.Tracer(tracerSuggestions).Start(ctx, "Comment",
		trace.WithAttributes(attribute.String("suggestion.id", id)))
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Comment{}, ErrEmptyComment
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sg, ok, err := s.Store.Suggestions.GetByID(ctx, id)
	if err != nil {
		return domain.Comment{}, err
	}
	if !ok {
		return domain.Comment{}, ErrSuggestionNotFound
	}

	c, err := s.Store.Comments.Create(ctx, domain.Comment{
		SuggestionID: id,
		Author:       author,
		Content:      content,
	})
	if err != nil {
		return domain.Comment{}, err
	}
	if err := s.recountComments(ctx, id); err != nil {
		return domain.Comment{}, err
	}

	if author.Email != sg.Author.Email {
		msg := fmt.Sprintf(`%s commented on your suggestion: "%s"`, author.Name, sg.Title)
		if _, err := s.Notifications.Create(ctx, sg.Author.Email, domain.NotificationComment, "New Comment", msg, sg.ID); err != nil {
			return domain.Comment{}, err
		}
	}
	commentsCreated.Inc()
	return c, nil
}

func (s *SuggestionService) recountComments(ctx context.Context, id string) error {
	all, err := s.Store.Comments.GetAll(ctx)
	if err != nil {
		return err
	}
	n := 0
	for _, c := range all {
		if c.SuggestionID == id {
			n++
		}
	}
	_, _, err = s.Store.Suggestions.Update(ctx, id, func(sg *domain.Suggestion) { sg.Comments = n })
	return err
}

// ListComments returns the suggestion's comments, oldest first.
func (s *SuggestionService) ListComments(ctx context.Context, id string) ([]domain.Comment, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	all, err := s.Store.Comments.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Comment, 0)
	for _, c := range all {
		if c.SuggestionID == id {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteComment removes a comment and refreshes its suggestion's count.
func (s *SuggestionService) DeleteComment(ctx context.Context, commentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok, err := s.Store.Comments.GetByID(ctx, commentID)
	if err != nil || !ok {
		return false, err
	}
	if _, err := s.Store.Comments.Delete(ctx, commentID); err != nil {
		return false, err
	}
	if err := s.recountComments(ctx, c.SuggestionID); err != nil {
		return false, err
	}
	return true, nil
}

// SetStatus moves a suggestion to status and sets its admin remark (an
// empty remark clears it). Any status may follow any other.
func (s *SuggestionService) SetStatus(ctx context.Context, id string, status domain.Status, remark string) (domain.Suggestion, error) {
	ctx, span := otel.Tracer(tracerSuggestions).Start(ctx, "SetStatus",
		trace.WithAttributes(
			attribute.String("suggestion.id", id),
			attribute.String("status", string(status)),
		))
	defer span.End()

	if !status.Valid() {
		return domain.Suggestion{}, fmt.Errorf("%w %q", ErrInvalidStatus, status)
	}
	remark = strings.TrimSpace(remark)

	s.mu.Lock()
	defer s.mu.Unlock()

	sg, ok, err := s.setStatus(ctx, id, status, &remark)
	if err != nil {
		return domain.Suggestion{}, err
	}
	if !ok {
		return domain.Suggestion{}, ErrSuggestionNotFound
	}
	return sg, nil
}

// BulkSetStatus applies SetStatus semantics to every id, leaving remarks
// unchanged. Unknown ids are skipped; the count of updated suggestions is
// returned.
func (s *SuggestionService) BulkSetStatus(ctx context.Context, ids []string, status domain.Status) (int, error) {
	ctx, span := otel.Tracer(tracerSuggestions).Start(ctx, "BulkSetStatus",
		trace.WithAttributes(
			attribute.Int("count", len(ids)),
			attribute.String("status", string(status)),
		))
	defer span.End()

	if !status.Valid() {
		return 0, fmt.Errorf("%w %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		_, ok, err := s.setStatus(ctx, id, status, nil)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// setStatus must be called with s.mu held. A nil remark leaves the
// existing one.
func (s *SuggestionService) setStatus(ctx context.Context, id string, status domain.Status, remark *string) (domain.Suggestion, bool, error) {
	var old domain.Status
	sg, ok, err := s.Store.Suggestions.Update(ctx, id, func(sg *domain.Suggestion) {
		old = sg.Status
		sg.Status = status
		if remark != nil {
			sg.AdminRemark = *remark
		}
	})
	if err != nil || !ok {
		return domain.Suggestion{}, ok, err
	}

	if delta := domain.StatusDelta(old, status); delta != 0 {
		if err := s.adjustStoredPoints(ctx, sg.Author.Email, delta); err != nil {
			return domain.Suggestion{}, false, err
		}
	}

	msg := fmt.Sprintf(`Your suggestion "%s" status has been changed to %s`, sg.Title, status.Label())
	if _, err := s.Notifications.Create(ctx, sg.Author.Email, domain.NotificationStatusChange, "Status Updated", msg, sg.ID); err != nil {
		return domain.Suggestion{}, false, err
	}

	statusChanges.WithLabelValues(string(status)).Inc()
	log.Info().
		Str("suggestion_id", sg.ID).
		Str("from", string(old)).
		Str("status", string(status)).
		Msg("suggestion status changed")
	return sg, true, nil
}

// adjustStoredPoints adds delta to the stored user with email, clamping at
// zero. Implicit users have no stored record and are left alone.
func (s *SuggestionService) adjustStoredPoints(ctx context.Context, email string, delta int) error {
	return s.Store.Users.Mutate(ctx, func(items []domain.User, _ time.Time) ([]domain.User, bool, error) {
		for i := range items {
			if items[i].Email == email {
				items[i].Points = max(0, items[i].Points+delta)
				return items, true, nil
			}
		}
		return items, false, nil
	})
}

// Update applies an admin edit. Required fields cannot be blanked.
func (s *SuggestionService) Update(ctx context.Context, id string, p SuggestionPatch) (domain.Suggestion, error) {
	ctx, span := otel.Tracer(tracerSuggestions).Start(ctx, "Update",
		trace.WithAttributes(attribute.String("suggestion.id", id)))
	defer span.End()

	for _, f := range []struct {
		name string
		v    *string
	}{
		{"title", p.Title}, {"problem", p.Problem}, {"solution", p.Solution}, {"category", p.Category},
	} {
		if f.v != nil && strings.TrimSpace(*f.v) == "" {
			return domain.Suggestion{}, fmt.Errorf("%w: %s is required", ErrValidation, f.name)
		}
	}
	var lang string
	if p.Language != nil {
		var err error
		if lang, err = parseLanguage(*p.Language); err != nil {
			return domain.Suggestion{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	sg, ok, err := s.Store.Suggestions.Update(ctx, id, func(sg *domain.Suggestion) {
		set(&sg.Title, p.Title)
		set(&sg.Problem, p.Problem)
		set(&sg.Cause, p.Cause)
		set(&sg.Solution, p.Solution)
		set(&sg.Benefit, p.Benefit)
		set(&sg.Category, p.Category)
		if p.Tags != nil {
			sg.Tags = normalizeTags(*p.Tags)
		}
		if p.Language != nil {
			sg.Language = lang
		}
	})
	if err != nil {
		return domain.Suggestion{}, err
	}
	if !ok {
		return domain.Suggestion{}, ErrSuggestionNotFound
	}
	return sg, nil
}

// Delete removes one suggestion. Its comments and notifications stay.
func (s *SuggestionService) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.Store.Suggestions.Delete(ctx, id)
	if err == nil && ok {
		log.Info().Str("suggestion_id", id).Msg("suggestion deleted")
	}
	return ok, err
}

// DeleteAll removes every suggestion and zeroes the stats of every stored
// user. Comments and notifications are left orphaned.
func (s *SuggestionService) DeleteAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.Store.Suggestions.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	err = s.Store.Users.Mutate(ctx, func(items []domain.User, _ time.Time) ([]domain.User, bool, error) {
		for i := range items {
			items[i].Points = 0
			items[i].SuggestionsCount = 0
			items[i].ImplementationsCount = 0
		}
		return items, len(items) > 0, nil
	})
	if err != nil {
		return n, err
	}
	log.Info().Int("count", n).Msg("all suggestions deleted")
	return n, nil
}

// Get returns one suggestion.
func (s *SuggestionService) Get(ctx context.Context, id string) (domain.Suggestion, error) {
	sg, ok, err := s.Store.Suggestions.GetByID(ctx, id)
	if err != nil {
		return domain.Suggestion{}, err
	}
	if !ok {
		return domain.Suggestion{}, ErrSuggestionNotFound
	}
	return sg, nil
}

// List filters, sorts and pages suggestions. total is the filtered count
// before paging. A PageSize <= 0 returns every match.
func (s *SuggestionService) List(ctx context.Context, q ListQuery) (items []domain.Suggestion, total int, err error) {
	ctx, span := otel.Tracer(tracerSuggestions).Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int("page", q.Page),
			attribute.Int("page_size", q.PageSize),
		))
	defer span.End()

	all, err := s.Store.Suggestions.GetAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	filtered := aggregate.Apply(all, q.Filter, s.Store.Now())
	aggregate.SortSuggestions(filtered, q.Sort)
	if q.Sort == aggregate.SortRelevant {
		filtered = rankByQuery(filtered, q.Filter.Query)
	}
	total = len(filtered)

	if q.PageSize <= 0 {
		return filtered, total, nil
	}
	if q.Page < 1 {
		q.Page = 1
	}
	start := (q.Page - 1) * q.PageSize
	if start >= total {
		return []domain.Suggestion{}, total, nil
	}
	end := min(start+q.PageSize, total)
	return filtered[start:end], total, nil
}

// RecomputeSentiments reclassifies every suggestion and reports how many
// changed.
func (s *SuggestionService) RecomputeSentiments(ctx context.Context) (int, error) {
	ctx, span := otel.Tracer(tracerSuggestions).Start(ctx, "RecomputeSentiments")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	err := s.Store.Suggestions.Mutate(ctx, func(items []domain.Suggestion, now time.Time) ([]domain.Suggestion, bool, error) {
		for i := range items {
			got := sentiment.Classify(items[i].Problem, items[i].Solution, items[i].Benefit)
			if got != items[i].Sentiment {
				items[i].Sentiment = got
				if now.After(items[i].CreatedAt) {
					items[i].UpdatedAt = now
				}
				changed++
			}
		}
		return items, changed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	log.Info().Int("updated", changed).Msg("sentiments recomputed")
	return changed, nil
}

// SimilarTo ranks other suggestions by word overlap with id.
func (s *SuggestionService) SimilarTo(ctx context.Context, id string, k int) ([]Similar, error) {
	ctx, span := otel.Tracer(tracerSuggestions).Start(ctx, "SimilarTo",
		trace.WithAttributes(attribute.String("suggestion.id", id)))
	defer span.End()

	all, err := s.Store.Suggestions.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Suggestion, len(all))
	for _, sg := range all {
		byID[sg.ID] = sg
	}
	if _, ok := byID[id]; !ok {
		return nil, ErrSuggestionNotFound
	}

	idx := search.NewIndex(search.SuggestionDocs(all))
	results := idx.Similar(id, k)
	out := make([]Similar, 0, len(results))
	for _, r := range results {
		out = append(out, Similar{Suggestion: byID[r.ID], Score: r.Score})
	}
	return out, nil
}

// rankByQuery moves the suggestions sharing words with query to the front,
// best match first. The rest keep their order.
func rankByQuery(items []domain.Suggestion, query string) []domain.Suggestion {
	hits := search.NewIndex(search.SuggestionDocs(items)).TopK(query, len(items))
	if len(hits) == 0 {
		return items
	}
	pos := make(map[string]int, len(items))
	for i, sg := range items {
		pos[sg.ID] = i
	}
	out := make([]domain.Suggestion, 0, len(items))
	taken := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		out = append(out, items[pos[h.ID]])
		taken[h.ID] = struct{}{}
	}
	for _, sg := range items {
		if _, ok := taken[sg.ID]; !ok {
			out = append(out, sg)
		}
	}
	return out
}

// normalizeTags trims, drops empties and removes case-insensitive
// duplicates, keeping first spelling and order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		k := strings.ToLower(t)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}
