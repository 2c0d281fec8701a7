package sandbox

// Outcome tags the normalized result of one execution attempt. The
// sandbox response is a loose bag of optional fields; resolving it to
// exactly one outcome happens once, in the client, so everything
// downstream can switch on the tag instead of probing fields.
type Outcome string

const (
	// OutcomeSuccess: the run stage completed with exit code 0.
	OutcomeSuccess Outcome = "success"
	// OutcomeTransport: the network call or response parse failed.
	OutcomeTransport Outcome = "transport"
	// OutcomeMessage: the sandbox rejected the request with a
	// top-level message (e.g. unsupported runtime version).
	OutcomeMessage Outcome = "message"
	// OutcomeCompile: the compile stage exited non-zero.
	OutcomeCompile Outcome = "compile_error"
	// OutcomeRuntime: the run stage exited non-zero.
	OutcomeRuntime Outcome = "runtime_error"
)

// Result is the uniform shape of one completed execution attempt.
// ErrorText is set iff the attempt failed at any stage; its presence
// is authoritative for failure regardless of Output.
type Result struct {
	SourceText string
	Outcome    Outcome
	Output     string
	ErrorText  string
}

// Failed reports whether the attempt failed at any stage.
func (r Result) Failed() bool {
	return r.ErrorText != ""
}
