// Package api defines the JSON types of the HTTP boundary.
package api

import (
	"fmt"
	"unicode/utf8"
)

// Request header names carrying the signature material.
const (
	HeaderTimestamp = "X-Timestamp"
	HeaderSignature = "X-Signature"
)

const (
	maxIdeaTextLen  = 10000
	maxIdeaIDLen    = 100
	maxRequestIDLen = 100
)

// PrintRequest is the body of POST /print.
type PrintRequest struct {
	IdeaText  string `json:"idea_text"`
	IdeaID    string `json:"idea_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Validate enforces the field bounds of the print endpoint. Limits
// count characters, not bytes, so multibyte text is not penalized.
func (r *PrintRequest) Validate() error {
	if r.IdeaText == "" {
		return fmt.Errorf("idea_text is required")
	}
	if utf8.RuneCountInString(r.IdeaText) > maxIdeaTextLen {
		return fmt.Errorf("idea_text must be at most %d characters", maxIdeaTextLen)
	}
	if utf8.RuneCountInString(r.IdeaID) > maxIdeaIDLen {
		return fmt.Errorf("idea_id must be at most %d characters", maxIdeaIDLen)
	}
	if utf8.RuneCountInString(r.RequestID) > maxRequestIDLen {
		return fmt.Errorf("request_id must be at most %d characters", maxRequestIDLen)
	}
	return nil
}

// PrintResponse is the body returned by POST /print.
type PrintResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	IdeaID  string `json:"idea_id,omitempty"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Transport     string `json:"transport"`
	DedupeEnabled bool   `json:"dedupe_enabled"`
}
