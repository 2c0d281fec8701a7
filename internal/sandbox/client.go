// Package sandbox is the client for the remote code-execution service.
// It builds requests from a language config plus source text and
// normalizes the service's heterogeneous compile/run response into a
// single tagged Result. It performs no retries and mutates no session
// state; failures are terminal for the attempt.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"codepad/internal/language"
	"codepad/internal/monitor"
)

// Client talks to the remote execution sandbox.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	registry *language.Registry
	tracer   *monitor.Tracer
}

// NewClient creates a sandbox client for the given endpoint. A zero
// timeout disables the client-side deadline; a hung request then
// resolves only when the transport errors or the context is canceled.
func NewClient(endpoint, apiKey string, timeout time.Duration, registry *language.Registry) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
		registry: registry,
		tracer:   monitor.NewTracer(),
	}
}

// Wire types for the sandbox protocol. Any subset of the response
// fields may be absent.
type executeRequest struct {
	Language string        `json:"language"`
	Version  string        `json:"version"`
	Files    []executeFile `json:"files"`
}

type executeFile struct {
	Content string `json:"content"`
}

type stageResult struct {
	Code   int    `json:"code"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Output string `json:"output"`
}

type executeResponse struct {
	Message string       `json:"message"`
	Compile *stageResult `json:"compile"`
	Run     *stageResult `json:"run"`
}

// Execute submits source text for the given language and returns the
// normalized result. Precondition violations (empty source, unknown
// language) return an error without any network activity; every
// remote failure mode, transport failures included, is folded into
// the Result instead.
func (c *Client) Execute(ctx context.Context, langID, sourceText string) (Result, error) {
	if strings.TrimSpace(sourceText) == "" {
		return Result{}, ErrEmptySource
	}

	cfg, err := c.registry.Get(langID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, langID)
	}

	ctx, span := c.tracer.StartSpan(ctx, "execute",
		monitor.AttrLanguage.String(langID),
		attribute.Int("codepad.code_bytes", len(sourceText)),
	)
	defer span.End()

	resp, err := c.post(ctx, executeRequest{
		Language: cfg.RuntimeName,
		Version:  cfg.RuntimeVersion,
		Files:    []executeFile{{Content: sourceText}},
	})
	if err != nil {
		log.Warn().Err(err).Str("language", langID).Msg("sandbox call failed")
		return Result{
			SourceText: sourceText,
			Outcome:    OutcomeTransport,
			ErrorText:  TransportErrorText,
		}, nil
	}

	result := normalize(sourceText, resp)
	span.SetAttributes(monitor.AttrOutcome.String(string(result.Outcome)))
	return result, nil
}

func (c *Client) post(ctx context.Context, payload executeRequest) (*executeResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sandbox request: %w", err)
	}
	defer httpResp.Body.Close()

	var resp executeResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &resp, nil
}

// normalize resolves the response to exactly one outcome, first match
// wins: top-level message, compile failure, run failure, success.
func normalize(sourceText string, resp *executeResponse) Result {
	result := Result{SourceText: sourceText}

	switch {
	case resp.Message != "":
		result.Outcome = OutcomeMessage
		result.ErrorText = resp.Message

	case resp.Compile != nil && resp.Compile.Code != 0:
		result.Outcome = OutcomeCompile
		result.ErrorText = stageError(resp.Compile)

	case resp.Run != nil && resp.Run.Code != 0:
		result.Outcome = OutcomeRuntime
		result.ErrorText = stageError(resp.Run)

	default:
		result.Outcome = OutcomeSuccess
		if resp.Run != nil {
			result.Output = strings.TrimSpace(resp.Run.Stdout)
		}
	}

	return result
}

// stageError prefers stderr, falling back to the stage's combined
// output when stderr is empty.
func stageError(stage *stageResult) string {
	if stage.Stderr != "" {
		return stage.Stderr
	}
	if stage.Output != "" {
		return stage.Output
	}
	return stage.Stdout
}
