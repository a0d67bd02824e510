package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/go-suggestion-box/internal/domain"
	"github.com/tbourn/go-suggestion-box/internal/services"
)

func TestSubmit_RequiresSessionAndValidates(t *testing.T) {
	hs := newHarness(t)
	wantCode(t, hs.do(t, http.MethodPost, "/suggestions", submitInput("Dock scheduling")),
		http.StatusUnauthorized, ErrCodeUnauthorized)

	hs.login(t, "john.doe@company.com", "user123")
	in := submitInput("")
	wantCode(t, hs.do(t, http.MethodPost, "/suggestions", in), http.StatusBadRequest, ErrCodeValidation)

	sg := hs.submit(t, "Dock scheduling")
	if sg.Status != domain.StatusPending || sg.Author.Email != "john.doe@company.com" || sg.Sentiment == "" {
		t.Fatalf("submitted: %+v", sg)
	}
}

func TestSubmit_IdempotencyReplay(t *testing.T) {
	hs := newHarness(t)
	hs.login(t, "john.doe@company.com", "user123")

	first := hs.do(t, http.MethodPost, "/suggestions", submitInput("Dock scheduling"), "Idempotency-Key", "k-42")
	wantCode(t, first, http.StatusCreated, "")
	again := hs.do(t, http.MethodPost, "/suggestions", submitInput("Dock scheduling"), "Idempotency-Key", "k-42")
	wantCode(t, again, http.StatusOK, "")
	if again.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatal("missing replay header")
	}
	if decode[domain.Suggestion](t, first).ID != decode[domain.Suggestion](t, again).ID {
		t.Fatal("replay returned another suggestion")
	}

	wantCode(t, hs.do(t, http.MethodPost, "/suggestions", submitInput("x"), "Idempotency-Key", "bad key"),
		http.StatusBadRequest, "bad_idempotency_key")
}

func TestListSuggestions_FilterPagingETag(t *testing.T) {
	hs := newHarness(t)

	w := hs.do(t, http.MethodGet, "/suggestions?page_size=2", nil)
	wantCode(t, w, http.StatusOK, "")
	page := decode[ListSuggestionsResponse](t, w)
	if len(page.Suggestions) != 2 || page.Pagination.Total != 3 || !page.Pagination.HasNext {
		t.Fatalf("page: %+v", page.Pagination)
	}
	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"suggestions:3:`) {
		t.Fatalf("etag=%q", etag)
	}

	if w := hs.do(t, http.MethodGet, "/suggestions", nil, "If-None-Match", etag); w.Code != http.StatusNotModified {
		t.Fatalf("conditional get=%d", w.Code)
	}

	w = hs.do(t, http.MethodGet, "/suggestions?status=pending", nil)
	for _, s := range decode[ListSuggestionsResponse](t, w).Suggestions {
		if s.Status != domain.StatusPending {
			t.Fatalf("filter leaked %s", s.Status)
		}
	}

	hs.login(t, "john.doe@company.com", "user123")
	hs.submit(t, "Dock scheduling")
	if w := hs.do(t, http.MethodGet, "/suggestions", nil, "If-None-Match", etag); w.Code != http.StatusOK {
		t.Fatalf("stale etag honored: %d", w.Code)
	}
}

func TestVote_Toggle(t *testing.T) {
	hs := newHarness(t)
	wantCode(t, hs.do(t, http.MethodPost, "/suggestions/1/vote", nil), http.StatusUnauthorized, ErrCodeUnauthorized)

	hs.login(t, "john.doe@company.com", "user123")
	on := decode[services.VoteResult](t, hs.do(t, http.MethodPost, "/suggestions/1/vote", nil))
	off := decode[services.VoteResult](t, hs.do(t, http.MethodPost, "/suggestions/1/vote", nil))
	if !on.Voted || off.Voted || on.Votes != off.Votes+1 {
		t.Fatalf("toggle: on=%+v off=%+v", on, off)
	}
	wantCode(t, hs.do(t, http.MethodPost, "/suggestions/missing/vote", nil), http.StatusNotFound, ErrCodeNotFound)
}

func TestStatusChanges(t *testing.T) {
	hs := newHarness(t)
	hs.login(t, "admin@company.com", "admin123")

	wantCode(t, hs.do(t, http.MethodPut, "/suggestions/2/status", StatusRequest{Status: "shipped"}),
		http.StatusBadRequest, ErrCodeValidation)

	w := hs.do(t, http.MethodPut, "/suggestions/2/status", StatusRequest{Status: "approved", AdminRemark: "Go"})
	sg := decode[domain.Suggestion](t, w)
	if w.Code != http.StatusOK || sg.Status != domain.StatusApproved || sg.AdminRemark != "Go" {
		t.Fatalf("status: %d %+v", w.Code, sg)
	}
	wantCode(t, hs.do(t, http.MethodPut, "/suggestions/nope/status", StatusRequest{Status: "approved"}),
		http.StatusNotFound, ErrCodeNotFound)

	w = hs.do(t, http.MethodPost, "/suggestions/bulk-status", BulkStatusRequest{IDs: []string{"1", "3", "nope"}, Status: "rejected"})
	if got := decode[CountResponse](t, w); got.Count != 2 {
		t.Fatalf("bulk count=%d", got.Count)
	}
}

func TestUpdateDeleteAndAdminTools(t *testing.T) {
	hs := newHarness(t)
	hs.login(t, "admin@company.com", "admin123")

	title := "Greener Office"
	w := hs.do(t, http.MethodPatch, "/suggestions/2", services.SuggestionPatch{Title: &title})
	if got := decode[domain.Suggestion](t, w); got.Title != title {
		t.Fatalf("patched title=%q", got.Title)
	}
	blank := " "
	wantCode(t, hs.do(t, http.MethodPatch, "/suggestions/2", services.SuggestionPatch{Title: &blank}),
		http.StatusBadRequest, ErrCodeValidation)

	if got := decode[CountResponse](t, hs.do(t, http.MethodPost, "/suggestions/seed", SeedRequest{Count: 4})); got.Count != 4 {
		t.Fatalf("seeded=%d", got.Count)
	}
	if w := hs.do(t, http.MethodPost, "/suggestions/recompute-sentiment", nil); w.Code != http.StatusOK {
		t.Fatalf("recompute=%d", w.Code)
	}

	sim := decode[SimilarResponse](t, hs.do(t, http.MethodGet, "/suggestions/1/similar?k=2", nil))
	for _, s := range sim.Similar {
		if s.Suggestion.ID == "1" {
			t.Fatal("similar includes itself")
		}
	}

	wantCode(t, hs.do(t, http.MethodDelete, "/suggestions/2", nil), http.StatusNoContent, "")
	wantCode(t, hs.do(t, http.MethodDelete, "/suggestions/2", nil), http.StatusNotFound, ErrCodeNotFound)
	wantCode(t, hs.do(t, http.MethodGet, "/suggestions/2", nil), http.StatusNotFound, ErrCodeNotFound)

	if got := decode[CountResponse](t, hs.do(t, http.MethodDelete, "/suggestions", nil)); got.Count != 6 {
		t.Fatalf("deleted=%d", got.Count)
	}
}

func TestExportSuggestionsCSV(t *testing.T) {
	hs := newHarness(t)
	w := hs.do(t, http.MethodGet, "/suggestions/export.csv?status=approved", nil)
	wantCode(t, w, http.StatusOK, "")
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content-type=%q", ct)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "admin_review_queue.csv") {
		t.Fatalf("disposition=%q", w.Header().Get("Content-Disposition"))
	}
	lines := strings.Split(w.Body.String(), "\n")
	if lines[0] != "id,title,status,category,author,department,createdAt,votes,comments" {
		t.Fatalf("header=%q", lines[0])
	}
	if len(lines) != 2 || !strings.HasPrefix(lines[1], `"1",`) {
		t.Fatalf("rows=%q", lines[1:])
	}
}
