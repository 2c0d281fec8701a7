package identity

import (
	"context"
	"errors"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{Subject: "user_1"})

	id, ok := FromContext(ctx)
	if !ok || id.Subject != "user_1" {
		t.Errorf("FromContext = (%+v, %v), want user_1", id, ok)
	}

	if _, ok := FromContext(context.Background()); ok {
		t.Error("FromContext on empty context reported an identity")
	}
}

func TestContextProvider(t *testing.T) {
	var p ContextProvider

	ctx := WithIdentity(context.Background(), Identity{Subject: "user_1"})
	id, err := p.Current(ctx)
	if err != nil || id.Subject != "user_1" {
		t.Errorf("Current = (%+v, %v)", id, err)
	}

	if _, err := p.Current(context.Background()); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("Current on empty context = %v, want ErrNoIdentity", err)
	}
}

func TestStaticProvider(t *testing.T) {
	id, err := StaticProvider{Subject: "cli_user"}.Current(context.Background())
	if err != nil || id.Subject != "cli_user" {
		t.Errorf("Current = (%+v, %v)", id, err)
	}

	if _, err := (StaticProvider{}).Current(context.Background()); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("empty StaticProvider = %v, want ErrNoIdentity", err)
	}
}

func TestTokenMapResolve(t *testing.T) {
	m := TokenMap{"tok_good": "user_1", "tok_empty": ""}

	if id, ok := m.Resolve("tok_good"); !ok || id.Subject != "user_1" {
		t.Errorf("Resolve(tok_good) = (%+v, %v)", id, ok)
	}
	if _, ok := m.Resolve("tok_unknown"); ok {
		t.Error("unknown token resolved")
	}
	if _, ok := m.Resolve("tok_empty"); ok {
		t.Error("token mapped to empty subject resolved")
	}
}
