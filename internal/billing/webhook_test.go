package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

type fakeUpdater struct {
	subject string
	isPro   bool
	calls   int
}

func (f *fakeUpdater) SetUserPro(_ context.Context, subject string, isPro bool) error {
	f.calls++
	f.subject = subject
	f.isPro = isPro
	return nil
}

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHandle_OrderCreated(t *testing.T) {
	users := &fakeUpdater{}
	p := NewProcessor("topsecret", users)
	payload := []byte(`{"meta":{"event_name":"order_created","custom_data":{"user_id":"user_42"}}}`)

	if err := p.Handle(context.Background(), payload, sign("topsecret", payload)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if users.subject != "user_42" || !users.isPro {
		t.Errorf("SetUserPro(%q, %v), want (user_42, true)", users.subject, users.isPro)
	}
}

func TestHandle_SubscriptionExpired(t *testing.T) {
	users := &fakeUpdater{}
	p := NewProcessor("topsecret", users)
	payload := []byte(`{"meta":{"event_name":"subscription_expired","custom_data":{"user_id":"user_42"}}}`)

	if err := p.Handle(context.Background(), payload, sign("topsecret", payload)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if users.isPro {
		t.Error("entitlement not revoked")
	}
}

func TestHandle_BadSignature(t *testing.T) {
	users := &fakeUpdater{}
	p := NewProcessor("topsecret", users)
	payload := []byte(`{"meta":{"event_name":"order_created","custom_data":{"user_id":"user_42"}}}`)

	err := p.Handle(context.Background(), payload, sign("wrong-secret", payload))
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Handle error = %v, want ErrInvalidSignature", err)
	}
	if users.calls != 0 {
		t.Error("entitlement updated despite bad signature")
	}
}

func TestHandle_UnknownEvent(t *testing.T) {
	users := &fakeUpdater{}
	p := NewProcessor("topsecret", users)
	payload := []byte(`{"meta":{"event_name":"order_refunded","custom_data":{"user_id":"user_42"}}}`)

	err := p.Handle(context.Background(), payload, sign("topsecret", payload))
	if !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("Handle error = %v, want ErrUnknownEvent", err)
	}
	if users.calls != 0 {
		t.Error("entitlement updated for unknown event")
	}
}

func TestHandle_MissingUserID(t *testing.T) {
	p := NewProcessor("topsecret", &fakeUpdater{})
	payload := []byte(`{"meta":{"event_name":"order_created"}}`)

	if err := p.Handle(context.Background(), payload, sign("topsecret", payload)); err == nil {
		t.Fatal("expected error for payload without user_id")
	}
}
