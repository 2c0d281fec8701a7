// Package history is the authenticated write path for execution
// records: one row per completed run, written only after the
// entitlement gate approves.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"codepad/internal/identity"
	"codepad/internal/monitor"
	"codepad/internal/storage"
)

// Authorizer is the entitlement gate contract.
type Authorizer interface {
	Authorize(ctx context.Context, id identity.Identity, languageID string) error
}

// Inserter appends one execution record to the durable store.
type Inserter interface {
	InsertExecution(ctx context.Context, rec *storage.ExecutionRecord) error
}

// Writer persists execution history. Append-only: each Save writes a
// new record, duplicates included.
type Writer struct {
	gate   Authorizer
	db     Inserter
	tracer *monitor.Tracer
}

// NewWriter creates a history writer.
func NewWriter(gate Authorizer, db Inserter) *Writer {
	return &Writer{gate: gate, db: db, tracer: monitor.NewTracer()}
}

// Save checks the gate and, on allow, inserts the record. A deny
// aborts the whole operation with the gate's reason and no partial
// record. The gate must return before the insert is issued; there is
// no transaction spanning both.
func (w *Writer) Save(ctx context.Context, id identity.Identity, languageID, sourceText, outputText, errorText string) (*storage.ExecutionRecord, error) {
	ctx, span := w.tracer.StartSpan(ctx, "history.save",
		monitor.AttrUserID.String(id.Subject),
		monitor.AttrLanguage.String(languageID),
	)
	defer span.End()

	if err := w.gate.Authorize(ctx, id, languageID); err != nil {
		return nil, fmt.Errorf("authorizing history write: %w", err)
	}

	rec := &storage.ExecutionRecord{
		ID:         uuid.New().String(),
		UserID:     id.Subject,
		Language:   languageID,
		SourceText: sourceText,
		OutputText: outputText,
		ErrorText:  errorText,
		CreatedAt:  time.Now().UTC(),
	}

	if err := w.db.InsertExecution(ctx, rec); err != nil {
		return nil, fmt.Errorf("writing execution record: %w", err)
	}
	return rec, nil
}
