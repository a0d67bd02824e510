package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

func TestNotifications_Lifecycle(t *testing.T) {
	svc, _, clk := newTestServices(t)
	ctx := context.Background()
	n := svc.Notifications

	first, err := n.Create(ctx, "a@x", domain.NotificationComment, "one", "m1", "s1")
	if err != nil || first.Read || first.ID == "" {
		t.Fatalf("Create: %+v %v", first, err)
	}
	clk.advance(time.Second)
	if _, err := n.Create(ctx, "a@x", domain.NotificationMention, "two", "m2", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := n.Create(ctx, "b@x", domain.NotificationVote, "other", "m", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := n.Create(ctx, "a@x", domain.NotificationType("spam"), "x", "x", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	list, _ := n.ListFor(ctx, "a@x")
	if len(list) != 2 || list[0].Title != "two" || list[1].Title != "one" {
		t.Fatalf("ListFor order: %+v", list)
	}
	if c, _ := n.UnreadCount(ctx, "a@x"); c != 2 {
		t.Fatalf("unread = %d", c)
	}

	if ok, _ := n.MarkRead(ctx, first.ID); !ok {
		t.Fatalf("MarkRead returned false")
	}
	if ok, _ := n.MarkRead(ctx, "missing"); ok {
		t.Fatalf("MarkRead(missing) returned true")
	}
	if c, _ := n.UnreadCount(ctx, "a@x"); c != 1 {
		t.Fatalf("unread after MarkRead = %d", c)
	}

	changed, err := n.MarkAllRead(ctx, "a@x")
	if err != nil || changed != 1 {
		t.Fatalf("MarkAllRead changed=%d err=%v", changed, err)
	}
	if c, _ := n.UnreadCount(ctx, "b@x"); c != 1 {
		t.Fatalf("other recipient touched: %d", c)
	}
}

func TestSettings(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	s, err := svc.Settings.Get(ctx)
	if err != nil || s != domain.DefaultSettings() {
		t.Fatalf("defaults: %+v %v", s, err)
	}

	bad := "neon"
	if _, err := svc.Settings.Update(ctx, SettingsPatch{Theme: &bad}); !errors.Is(err, ErrInvalidTheme) {
		t.Fatalf("expected ErrInvalidTheme, got %v", err)
	}
	lang := "xx-not-valid-tag-123456789"
	if _, err := svc.Settings.Update(ctx, SettingsPatch{Language: &lang}); !errors.Is(err, ErrInvalidLanguage) {
		t.Fatalf("expected ErrInvalidLanguage, got %v", err)
	}

	dark, off, pt := "Dark", false, "pt-br"
	got, err := svc.Settings.Update(ctx, SettingsPatch{Theme: &dark, EmailNotifications: &off, Language: &pt})
	if err != nil {
		t.Fatal(err)
	}
	if got.Theme != domain.ThemeDark || got.EmailNotifications || !got.Notifications || got.Language != "pt-BR" {
		t.Fatalf("updated settings: %+v", got)
	}
}

func TestJanitor_Sweep(t *testing.T) {
	_, st, clk := newTestServices(t)
	ctx := context.Background()
	if _, err := st.CreateIdempotency(ctx, "a@x", "k", "s", time.Minute); err != nil {
		t.Fatal(err)
	}
	clk.advance(2 * time.Minute)

	j := &Janitor{Store: st}
	j.sweep(ctx)
	all, _ := st.Idempotency.GetAll(ctx)
	if len(all) != 0 {
		t.Fatalf("expired records kept: %d", len(all))
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := j.Run(cctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
