// Package ai orchestrates the conversation with an external language model.
//
// The model never touches the dataset directly: it asks for one of the
// engine's operations through a text marker, the loop executes it and hands
// the structured result back for final phrasing. Every backend failure
// degrades to the keyword router, never to the caller.
package ai

import (
	"context"
	"errors"
)

// ErrBackendUnavailable wraps every transport, auth or decoding failure of
// the model backend. Callers recover from it locally.
var ErrBackendUnavailable = errors.New("model backend unavailable")

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Backend is a chat-completion model endpoint.
type Backend interface {
	// Complete sends the conversation and returns the assistant reply text.
	Complete(ctx context.Context, messages []Message) (string, error)
}
