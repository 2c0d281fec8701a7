// Package entitle decides whether an execution record may be written
// for a given user and language. Pure policy over its inputs plus one
// entitlement lookup; no side effects, no caching.
package entitle

import (
	"context"
	"errors"
	"fmt"

	"codepad/internal/identity"
	"codepad/internal/language"
	"codepad/internal/storage"
)

// Sentinel errors. Absence of identity is distinct from a policy
// deny so callers can tell "log in" apart from "upgrade".
var (
	ErrNotAuthenticated = errors.New("user not authenticated")
	ErrProRequired      = errors.New("pro subscription required for languages other than " + language.DefaultFree)
)

// UserFinder looks up the entitlement-bearing user record by identity
// subject. A nil user with nil error means no record exists.
type UserFinder interface {
	FindUserByIdentity(ctx context.Context, subject string) (*storage.User, error)
}

// Gate is the entitlement check run before every history write.
type Gate struct {
	users        UserFinder
	freeLanguage string
}

// NewGate creates a gate with the registry's default free language as
// the baseline.
func NewGate(users UserFinder) *Gate {
	return &Gate{users: users, freeLanguage: language.DefaultFree}
}

// Authorize allows the write or returns the deny reason. The free
// language is allowed for every authenticated user; anything else
// requires an active pro entitlement, read fresh on each call.
func (g *Gate) Authorize(ctx context.Context, id identity.Identity, languageID string) error {
	if id.Subject == "" {
		return ErrNotAuthenticated
	}

	if languageID == g.freeLanguage {
		return nil
	}

	user, err := g.users.FindUserByIdentity(ctx, id.Subject)
	if err != nil {
		return fmt.Errorf("looking up entitlement for %s: %w", id.Subject, err)
	}
	if user == nil || !user.IsPro {
		return ErrProRequired
	}
	return nil
}
