// Package billing processes payment-provider webhooks that grant or
// revoke the pro entitlement. Payloads are authenticated with an
// HMAC-SHA256 signature before anything is parsed or written.
package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrUnknownEvent     = errors.New("unknown webhook event")
)

// Event names the processor acts on.
const (
	eventOrderCreated        = "order_created"
	eventSubscriptionExpired = "subscription_expired"
)

// event is the subset of the provider payload the processor reads.
// The user's identity subject travels in custom_data, set at checkout.
type event struct {
	Meta struct {
		EventName  string `json:"event_name"`
		CustomData struct {
			UserID string `json:"user_id"`
		} `json:"custom_data"`
	} `json:"meta"`
}

// EntitlementUpdater flips a user's pro flag in the durable store.
type EntitlementUpdater interface {
	SetUserPro(ctx context.Context, subject string, isPro bool) error
}

// Processor verifies and applies billing webhooks.
type Processor struct {
	secret []byte
	users  EntitlementUpdater
}

// NewProcessor creates a webhook processor with the shared secret.
func NewProcessor(secret string, users EntitlementUpdater) *Processor {
	return &Processor{secret: []byte(secret), users: users}
}

// VerifySignature checks the hex-encoded HMAC-SHA256 signature over
// the raw payload.
func (p *Processor) VerifySignature(payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Handle verifies the payload and applies the entitlement change.
// Events the processor does not act on return ErrUnknownEvent so the
// caller can acknowledge them without side effects.
func (p *Processor) Handle(ctx context.Context, payload []byte, signature string) error {
	if !p.VerifySignature(payload, signature) {
		return ErrInvalidSignature
	}

	var ev event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("parsing webhook payload: %w", err)
	}

	var isPro bool
	switch ev.Meta.EventName {
	case eventOrderCreated:
		isPro = true
	case eventSubscriptionExpired:
		isPro = false
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Meta.EventName)
	}

	if ev.Meta.CustomData.UserID == "" {
		return fmt.Errorf("webhook %q has no user_id", ev.Meta.EventName)
	}

	if err := p.users.SetUserPro(ctx, ev.Meta.CustomData.UserID, isPro); err != nil {
		return err
	}
	log.Info().
		Str("user_id", ev.Meta.CustomData.UserID).
		Bool("is_pro", isPro).
		Msg("entitlement updated")
	return nil
}
