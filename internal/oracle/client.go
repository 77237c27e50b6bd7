// Package oracle wraps the external text-completion service used to
// synthesize answers. The service is a downstream dependency, not core
// logic: callers treat its output as untrusted text.
package oracle

import "context"

// Request is a single completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int32
	Temperature float32
}

// Response carries the raw completion text.
type Response struct {
	Text string
}

// Client is implemented by each completion provider.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
