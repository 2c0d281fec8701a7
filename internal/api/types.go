package api

// SessionState is the UI-facing view of one editor session.
type SessionState struct {
	ID        string `json:"id"`
	Language  string `json:"language"`
	Theme     string `json:"theme"`
	FontSize  int    `json:"font_size"`
	Code      string `json:"code"`
	Output    string `json:"output"`
	Error     string `json:"error,omitempty"`
	IsRunning bool   `json:"is_running"`
	Status    string `json:"status"` // ready, running, passed, failed
}

// UpdateBufferRequest replaces the session's buffer text. The browser
// owns the editing surface; this is its write channel.
type UpdateBufferRequest struct {
	Code string `json:"code"`
}

// SetLanguageRequest switches the session language.
type SetLanguageRequest struct {
	Language string `json:"language"`
}

// SetThemeRequest updates the theme preference.
type SetThemeRequest struct {
	Theme string `json:"theme"`
}

// SetFontSizeRequest updates the font size preference. Out-of-range
// values are clamped, not rejected.
type SetFontSizeRequest struct {
	FontSize int `json:"font_size"`
}

// RunResponse is the state after a run plus the history-save outcome.
// History denial is an authorization concern and stays separate from
// the execution error in the session state.
type RunResponse struct {
	SessionState
	History HistoryStatus `json:"history"`
}

// HistoryStatus reports whether the execution record was persisted.
// Reasons: pro_required, not_authenticated, unavailable, error.
type HistoryStatus struct {
	Saved    bool   `json:"saved"`
	RecordID string `json:"record_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// LanguageInfo describes one selectable language for the UI.
type LanguageInfo struct {
	ID             string `json:"id"`
	DisplayName    string `json:"display_name"`
	EditorSyntaxID string `json:"editor_syntax_id"`
	RuntimeName    string `json:"runtime_name"`
	RuntimeVersion string `json:"runtime_version"`
	DefaultSource  string `json:"default_source"`
}

// ErrorResponse is returned for API errors.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Database bool   `json:"database"`
	Uptime   string `json:"uptime"`
}
