// Package audit records who did what across the portal. Events flow through
// an async publisher so request latency never waits on the audit backend.
package audit

import (
	"context"
	"time"
)

// Action names follow subject.verb so topic consumers can filter by prefix.
const (
	ActionUserRegistered     = "user.registered"
	ActionUserLoggedIn       = "user.logged_in"
	ActionProfileUpdated     = "profile.updated"
	ActionDocumentUploaded   = "document.uploaded"
	ActionDocumentVerified   = "document.verified"
	ActionApplicationCreated = "application.created"
	ActionApplicationUpdated = "application.status_changed"
	ActionAssistantQueried   = "assistant.queried"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Event is one audit record. UserID, ClientIP and UserAgent come from the
// request context at emit time.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId,omitempty"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject,omitempty"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	ClientIP  string    `json:"clientIp,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
}

// Sink is the durable backend behind the publisher.
type Sink interface {
	Write(ctx context.Context, event Event) error
}
