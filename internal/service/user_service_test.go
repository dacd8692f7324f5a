package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"blogapi/internal/domain"
	"blogapi/internal/repository/memory"
	"blogapi/pkg/logger"
)

func TestSignupUniqueness(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)
	f.signup(t, "alice")

	tests := []struct {
		name    string
		in      domain.SignupInput
		wantErr error
		wantMsg string
	}{
		{
			name:    "email taken",
			in:      domain.SignupInput{Fullname: "A", Username: "alice2", Email: "alice@example.com", Password: "secret123"},
			wantErr: domain.ErrEmailTaken,
			wantMsg: "Email is already taken",
		},
		{
			name:    "username taken",
			in:      domain.SignupInput{Fullname: "A", Username: "alice", Email: "new@example.com", Password: "secret123"},
			wantErr: domain.ErrUsernameTaken,
			wantMsg: "Username is already taken",
		},
		{
			name:    "email checked first",
			in:      domain.SignupInput{Fullname: "A", Username: "alice", Email: "alice@example.com", Password: "secret123"},
			wantErr: domain.ErrEmailTaken,
			wantMsg: "Email is already taken",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.userSvc.Signup(ctx, tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if got := domain.PublicMessage(err); got != tc.wantMsg {
				t.Errorf("message = %q, want %q", got, tc.wantMsg)
			}
		})
	}
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(false)
	tests := []struct {
		name string
		in   domain.SignupInput
	}{
		{"missing fullname", domain.SignupInput{Username: "bob", Email: "bob@example.com", Password: "secret123"}},
		{"missing password", domain.SignupInput{Fullname: "B", Username: "bob", Email: "bob@example.com"}},
		{"short username", domain.SignupInput{Fullname: "B", Username: "bo", Email: "bob@example.com", Password: "secret123"}},
		{"bad email", domain.SignupInput{Fullname: "B", Username: "bob", Email: "bob", Password: "secret123"}},
		{"short password", domain.SignupInput{Fullname: "B", Username: "bob", Email: "bob@example.com", Password: "123"}},
		{"unknown role", domain.SignupInput{Fullname: "B", Username: "bob", Email: "bob@example.com", Password: "secret123", Role: "root"}},
		{"long password", domain.SignupInput{Fullname: "B", Username: "bob", Email: "bob@example.com", Password: strings.Repeat("a", 80)}},
		// 40 characters, 80 bytes
		{"long multi-byte password", domain.SignupInput{Fullname: "B", Username: "bob", Email: "bob@example.com", Password: strings.Repeat("é", 40)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.userSvc.Signup(context.Background(), tc.in)
			if domain.KindOf(err) != domain.KindValidation {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}
}

func TestBcryptHasherRejectsLongPassword(t *testing.T) {
	h := NewBcryptHasher(0)
	if _, err := h.Hash(strings.Repeat("x", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("err = %v, want ErrPasswordTooLong", err)
	}
	hash, err := h.Hash(strings.Repeat("x", 72))
	if err != nil {
		t.Fatalf("72-byte password: %v", err)
	}
	if !h.Compare(hash, strings.Repeat("x", 72)) {
		t.Error("72-byte password does not verify")
	}
}

func TestUpdateUserRejectsLongPassword(t *testing.T) {
	f := newFixture(false)
	u := f.signup(t, "dave")
	_, err := f.userSvc.UpdateUser(context.Background(), identity(u), u.ID, domain.UpdateUserInput{
		Fullname: u.Fullname,
		Username: u.Username,
		Password: strings.Repeat("é", 40),
	})
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestSignupHashesPassword(t *testing.T) {
	f := newFixture(false)
	u := f.signup(t, "carol")
	if u.PasswordHash == "" || u.PasswordHash == "secret123" {
		t.Fatalf("password stored as %q", u.PasswordHash)
	}
	if u.Role != domain.UserRoleUser {
		t.Errorf("role = %q, want default user", u.Role)
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)
	u := f.signup(t, "dave")

	tests := []struct {
		name     string
		in       domain.LoginInput
		wantKind domain.Kind
		wantErr  error
	}{
		{"missing role", domain.LoginInput{Username: "dave", Password: "secret123"}, domain.KindValidation, nil},
		{"unknown user", domain.LoginInput{Username: "eve", Password: "secret123", Role: "user"}, domain.KindValidation, domain.ErrInvalidCredentials},
		{"wrong password", domain.LoginInput{Username: "dave", Password: "nope", Role: "user"}, domain.KindValidation, domain.ErrInvalidCredentials},
		{"role mismatch", domain.LoginInput{Username: "dave", Password: "secret123", Role: "admin"}, domain.KindAuthorization, domain.ErrRoleMismatch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.userSvc.Login(ctx, tc.in)
			if domain.KindOf(err) != tc.wantKind {
				t.Fatalf("kind = %s (%v), want %s", domain.KindOf(err), err, tc.wantKind)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}

	got, session, err := f.userSvc.Login(ctx, domain.LoginInput{Username: "dave", Password: "secret123", Role: "user"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != u.ID || session.Token == "" || session.TokenID == "" {
		t.Fatalf("user=%+v session=%+v", got, session)
	}
	claims, err := f.issuer.Verify(session.Token)
	if err != nil || claims.UserID != u.ID || claims.Role != "user" {
		t.Fatalf("claims = %+v, err = %v", claims, err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)
	f.signup(t, "erin")
	_, session, err := f.userSvc.Login(ctx, domain.LoginInput{Username: "erin", Password: "secret123", Role: "user"})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.userSvc.Logout(ctx, session.TokenID, session.ExpiresAt); err != nil {
		t.Fatal(err)
	}
	if revoked, _ := f.denylist.IsRevoked(ctx, session.TokenID); !revoked {
		t.Fatal("token not revoked")
	}
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)
	frank := f.signup(t, "frank")
	f.signup(t, "grace")

	_, err := f.userSvc.UpdateUser(ctx, identity(frank), frank.ID, domain.UpdateUserInput{Fullname: "F"})
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("missing fields err = %v", err)
	}

	_, err = f.userSvc.UpdateUser(ctx, identity(frank), frank.ID, domain.UpdateUserInput{
		Fullname: "F", Username: "grace", Email: "frank@example.com",
	})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("err = %v, want ErrUsernameTaken", err)
	}

	oldHash := frank.PasswordHash
	updated, err := f.userSvc.UpdateUser(ctx, identity(frank), frank.ID, domain.UpdateUserInput{
		Fullname: "Frank F", Username: "frankie", Password: "newsecret", Bio: "hello",
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Username != "frankie" || updated.Email != "frank@example.com" || updated.Bio != "hello" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.PasswordHash == oldHash {
		t.Error("password hash unchanged")
	}

	if _, _, err := f.userSvc.Login(ctx, domain.LoginInput{Username: "frankie", Password: "newsecret", Role: "user"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestUserOwnershipModes(t *testing.T) {
	ctx := context.Background()
	in := domain.UpdateUserInput{Fullname: "X", Username: "victim2", Email: "victim@example.com"}

	lenient := newFixture(false)
	victim := lenient.signup(t, "victim")
	other := lenient.signup(t, "other")
	if _, err := lenient.userSvc.UpdateUser(ctx, identity(other), victim.ID, in); err != nil {
		t.Fatalf("path-id update should pass by default: %v", err)
	}

	strict := newFixture(true)
	victim = strict.signup(t, "victim")
	other = strict.signup(t, "other")
	if _, err := strict.userSvc.UpdateUser(ctx, identity(other), victim.ID, in); !errors.Is(err, domain.ErrNotSelfUpdate) {
		t.Fatalf("strict update err = %v", err)
	}
	if _, err := strict.userSvc.DeleteUser(ctx, identity(other), victim.ID); !errors.Is(err, domain.ErrNotSelfDelete) {
		t.Fatalf("strict delete err = %v", err)
	}
	if _, err := strict.userSvc.DeleteUser(ctx, identity(victim), victim.ID); err != nil {
		t.Fatalf("self delete: %v", err)
	}
}

func TestListUsersEmpty(t *testing.T) {
	f := newFixture(false)
	if _, err := f.userSvc.ListUsers(context.Background()); !errors.Is(err, domain.ErrNoUsers) {
		t.Fatalf("err = %v, want ErrNoUsers", err)
	}
}

func TestInternalErrorsAreHidden(t *testing.T) {
	repo := &mockUserRepo{
		UserRepository: memory.NewUserRepository(),
		findByEmailFn: func(context.Context, string) (*domain.User, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewUserService(repo, NewBcryptHasher(4), nil, nil, false, logger.Nop())

	_, err := svc.Signup(context.Background(), domain.SignupInput{
		Fullname: "H", Username: "heidi", Email: "heidi@example.com", Password: "secret123",
	})
	if domain.KindOf(err) != domain.KindInternal {
		t.Fatalf("kind = %s", domain.KindOf(err))
	}
	if msg := domain.PublicMessage(err); msg != "Server Error" {
		t.Fatalf("leaked message %q", msg)
	}
}
