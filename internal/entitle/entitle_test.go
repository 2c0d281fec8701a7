package entitle

import (
	"context"
	"errors"
	"testing"

	"codepad/internal/identity"
	"codepad/internal/storage"
)

type fakeUsers struct {
	user    *storage.User
	err     error
	lookups int
}

func (f *fakeUsers) FindUserByIdentity(_ context.Context, _ string) (*storage.User, error) {
	f.lookups++
	return f.user, f.err
}

func TestAuthorize(t *testing.T) {
	pro := &storage.User{UserID: "user_1", IsPro: true}
	free := &storage.User{UserID: "user_2", IsPro: false}

	tests := []struct {
		name     string
		subject  string
		language string
		user     *storage.User
		wantErr  error
	}{
		{"no identity", "", "javascript", nil, ErrNotAuthenticated},
		{"free language without user record", "user_9", "javascript", nil, nil},
		{"free language for non-pro", "user_2", "javascript", free, nil},
		{"paid language for pro", "user_1", "python", pro, nil},
		{"paid language for non-pro", "user_2", "python", free, ErrProRequired},
		{"paid language without user record", "user_9", "python", nil, ErrProRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(&fakeUsers{user: tt.user})
			err := gate.Authorize(context.Background(), identity.Identity{Subject: tt.subject}, tt.language)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthorize_FreeLanguageSkipsLookup(t *testing.T) {
	users := &fakeUsers{}
	gate := NewGate(users)

	if err := gate.Authorize(context.Background(), identity.Identity{Subject: "user_1"}, "javascript"); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if users.lookups != 0 {
		t.Errorf("lookups = %d, want 0 for the free language", users.lookups)
	}
}

func TestAuthorize_LookupError(t *testing.T) {
	gate := NewGate(&fakeUsers{err: errors.New("db down")})

	err := gate.Authorize(context.Background(), identity.Identity{Subject: "user_1"}, "python")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrProRequired) || errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("lookup failure conflated with policy deny: %v", err)
	}
}
