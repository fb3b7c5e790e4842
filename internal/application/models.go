// Package application tracks a citizen's scheme applications from submission
// through the admin decision.
package application

import (
	"time"

	dErrors "seva/pkg/domain-errors"
)

// Status is the application lifecycle state. pending is the only non-terminal
// state; approved and rejected never change again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus validates an externally supplied status value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid application status: "+s)
	}
}

// CanTransitionTo reports whether the lifecycle permits moving to the given
// state. Terminal states permit nothing.
func (s Status) CanTransitionTo(to Status) bool {
	return s == StatusPending && (to == StatusApproved || to == StatusRejected)
}

// Application is one submission of one user to one scheme. Reference is the
// human-facing identifier quoted in correspondence; ID stays internal.
type Application struct {
	ID          string    `db:"id" json:"id"`
	Reference   string    `db:"reference" json:"reference"`
	UserID      string    `db:"user_id" json:"userId"`
	SchemeID    string    `db:"scheme_id" json:"schemeId"`
	Status      Status    `db:"status" json:"status"`
	DocumentIDs []string  `db:"document_ids" json:"documentIds"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// SubmitRequest is the POST body for a new application.
type SubmitRequest struct {
	SchemeID    string   `json:"schemeId" validate:"required"`
	DocumentIDs []string `json:"documentIds" validate:"omitempty,max=20,dive,required"`
}

// UpdateStatusRequest is the admin decision body.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// View decorates an application with scheme details and the document types
// the scheme asks for that the citizen has not uploaded yet. Derived at read
// and submit time, never stored.
type View struct {
	Application
	SchemeName       string   `json:"schemeName"`
	MissingDocuments []string `json:"missingDocuments"`
}
