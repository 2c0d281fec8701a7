// Package identity abstracts the authenticated-identity lookup. The
// real identity provider is an external collaborator; this package
// only defines the shape the core consumes and the plumbing to carry
// an identity through a request.
package identity

import (
	"context"
	"errors"
)

// ErrNoIdentity means no authenticated identity is available.
var ErrNoIdentity = errors.New("no authenticated identity")

// Identity is the opaque authenticated identity. Subject is the
// provider's stable user key.
type Identity struct {
	Subject string
}

// Provider resolves the current identity, suspending until resolved.
type Provider interface {
	Current(ctx context.Context) (Identity, error)
}

type contextKey struct{}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the identity placed by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok && id.Subject != ""
}

// ContextProvider resolves identities from the request context, where
// the API's auth middleware puts them.
type ContextProvider struct{}

func (ContextProvider) Current(ctx context.Context) (Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}

// StaticProvider always resolves to a fixed identity. The CLI uses it
// with a subject from the environment.
type StaticProvider struct {
	Subject string
}

func (p StaticProvider) Current(context.Context) (Identity, error) {
	if p.Subject == "" {
		return Identity{}, ErrNoIdentity
	}
	return Identity{Subject: p.Subject}, nil
}

// TokenMap maps bearer tokens to identity subjects. It stands in for
// the external auth provider's token verification on the server.
type TokenMap map[string]string

// Resolve returns the identity for a bearer token.
func (m TokenMap) Resolve(token string) (Identity, bool) {
	subject, ok := m[token]
	if !ok || subject == "" {
		return Identity{}, false
	}
	return Identity{Subject: subject}, true
}
