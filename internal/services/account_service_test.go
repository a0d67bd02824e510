package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-suggestion-box/internal/domain"
)

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"no name", RegisterInput{Email: "a@x", Password: "secret1"}, ErrValidation},
		{"no email", RegisterInput{Name: "A", Password: "secret1"}, ErrValidation},
		{"short", RegisterInput{Name: "A", Email: "a@x", Password: "12345"}, ErrPasswordTooShort},
		{"short in code units", RegisterInput{Name: "A", Email: "a@x", Password: "äöüß1"}, ErrPasswordTooShort},
		{"mismatch", RegisterInput{Name: "A", Email: "a@x", Password: "123456", ConfirmPassword: "654321"}, ErrPasswordMismatch},
		{"role", RegisterInput{Name: "A", Email: "a@x", Password: "123456", Role: "root"}, ErrInvalidRole},
	}
	for _, c := range cases {
		if _, err := svc.Accounts.Register(ctx, c.in); !errors.Is(err, c.want) {
			t.Fatalf("%s: expected %v, got %v", c.name, c.want, err)
		}
	}
}

func TestRegister_PasswordLengthInUTF16Units(t *testing.T) {
	svc, _, _ := newTestServices(t)
	// three emoji are three runes but six UTF-16 code units
	if _, err := svc.Accounts.Register(context.Background(), RegisterInput{
		Name: "E", Email: "emoji@x", Password: "\U0001F600\U0001F600\U0001F600",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestRegister_DuplicatesAndAutoLogin(t *testing.T) {
	svc, st, _ := newTestServices(t)
	ctx := context.Background()
	if err := st.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Accounts.Register(ctx, RegisterInput{Name: "X", Email: "ADMIN@company.com", Password: "123456"}); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	// aarav only exists as a suggestion author, which does not block sign-up
	u, err := svc.Accounts.Register(ctx, RegisterInput{
		Name: "Aarav", Email: "aarav@company.com", Password: "123456", ConfirmPassword: "123456", Department: "Logistics",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Password != "" || u.Role != domain.RoleUser || u.Points != 0 || u.ID == "" {
		t.Fatalf("registered user: %+v", u)
	}
	cur, ok, _ := svc.Accounts.Current(ctx)
	if !ok || cur.Email != "aarav@company.com" || cur.Password != "" {
		t.Fatalf("session after register: %+v ok=%v", cur, ok)
	}
	stored, _, _ := st.Users.Find(ctx, func(x domain.User) bool { return x.Email == "aarav@company.com" })
	if stored.Password != "123456" {
		t.Fatalf("stored password not kept")
	}
}

func TestLogin(t *testing.T) {
	svc, st, _ := newTestServices(t)
	ctx := context.Background()
	if err := st.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	u, err := svc.Accounts.Login(ctx, "admin@company.com", "admin123")
	if err != nil || !u.IsAdmin() || u.Password != "" {
		t.Fatalf("Login admin: %+v %v", u, err)
	}
	cur, ok, _ := svc.Accounts.Current(ctx)
	if !ok || cur.Email != "admin@company.com" || cur.Password != "" {
		t.Fatalf("session: %+v", cur)
	}

	for _, c := range [][2]string{
		{"admin@company.com", "wrong"},
		{"Admin@company.com", "admin123"},
		{"aarav@company.com", ""},
	} {
		if _, err := svc.Accounts.Login(ctx, c[0], c[1]); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Login(%q): expected ErrInvalidCredentials, got %v", c[0], err)
		}
	}

	if err := svc.Accounts.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := svc.Accounts.Current(ctx); ok {
		t.Fatalf("still logged in after Logout")
	}
}

func TestUpdateCurrent(t *testing.T) {
	svc, st, _ := newTestServices(t)
	ctx := context.Background()
	name := "Alicia"
	if _, err := svc.Accounts.UpdateCurrent(ctx, ProfilePatch{Name: &name}); !errors.Is(err, ErrNoCurrentUser) {
		t.Fatalf("expected ErrNoCurrentUser, got %v", err)
	}
	loginAs(t, st, alice)
	u, err := svc.Accounts.UpdateCurrent(ctx, ProfilePatch{Name: &name})
	if err != nil || u.Name != "Alicia" || u.Email != alice.Email {
		t.Fatalf("UpdateCurrent: %+v %v", u, err)
	}
}

func TestSetRoleAndDeleteAllUsers(t *testing.T) {
	svc, st, _ := newTestServices(t)
	ctx := context.Background()
	if err := st.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Accounts.Login(ctx, "john.doe@company.com", "user123"); err != nil {
		t.Fatal(err)
	}

	u, err := svc.Accounts.SetRole(ctx, "john.doe@company.com", "admin")
	if err != nil || u.Role != domain.RoleAdmin || u.Password != "" {
		t.Fatalf("SetRole: %+v %v", u, err)
	}
	if cur, _, _ := svc.Accounts.Current(ctx); !cur.IsAdmin() {
		t.Fatalf("session role not refreshed: %+v", cur)
	}
	if _, err := svc.Accounts.SetRole(ctx, "aarav@company.com", "admin"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("implicit user: expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.Accounts.SetRole(ctx, "john.doe@company.com", ""); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	n, err := svc.Accounts.DeleteAllUsers(ctx)
	if err != nil || n != 2 {
		t.Fatalf("DeleteAllUsers n=%d err=%v", n, err)
	}
	if _, ok, _ := svc.Accounts.Current(ctx); ok {
		t.Fatalf("session survived DeleteAllUsers")
	}
	users, err := svc.Accounts.Users(ctx)
	if err != nil || len(users) != 3 {
		t.Fatalf("implicit users should remain: %d %v", len(users), err)
	}
	for _, u := range users {
		if u.Password != "" {
			t.Fatalf("password leaked for %s", u.Email)
		}
	}
}
