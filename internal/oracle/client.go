// Package oracle adapts the external language-model service used for intake
// dialogue, specialist recommendation, and synthetic profile generation. The
// service is treated as a black box: callers hand it prompts and get text back,
// and every structured result is parsed defensively.
package oracle

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat exchange with the oracle.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes a single completion call.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int32
	Temperature float32
}

// Response is the oracle's free-text reply.
type Response struct {
	Text string
}

// Client is the minimal completion interface the rest of the system depends on.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Disabled is a Client that always fails. It stands in when no API key is
// configured so callers degrade to their empty-result paths.
type Disabled struct{}

func (Disabled) Complete(context.Context, Request) (Response, error) {
	return Response{}, ErrUnavailable
}
