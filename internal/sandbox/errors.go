package sandbox

import "errors"

// Sentinel errors for typed error checking.
var (
	// ErrEmptySource means the caller passed empty source text. Callers
	// are expected to validate before invoking the client; this never
	// results in a network call.
	ErrEmptySource = errors.New("source text is empty")

	// ErrUnsupportedLanguage means the language ID is not in the
	// registry. The UI only offers registered languages, so hitting
	// this is a programming error rather than a user-facing one.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// TransportErrorText is the user-visible error for any network or
// response-parse failure talking to the sandbox.
const TransportErrorText = "ERROR RUNNING CODE"
