package document

import (
	"strings"
	"time"

	dErrors "seva/pkg/domain-errors"
)

// DocumentType is the declared identity-document category. Values are the
// wire-level, case-sensitive strings the verification collaborator expects.
//
// Usage: construct via ParseDocumentType at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type DocumentType string

const (
	TypeAadharCard       DocumentType = "Aadhar Card"
	TypePANCard          DocumentType = "PAN Card"
	TypeCasteCertificate DocumentType = "Caste Certificate"
	TypeRationCard       DocumentType = "Ration Card"
	TypeVoterID          DocumentType = "Voter ID"
	TypeDrivingLicense   DocumentType = "Driving License"
)

// validDocumentTypes is the single source of truth for accepted types.
// Extending the portal to a new document type means adding it here and
// teaching the verifier about it.
var validDocumentTypes = map[DocumentType]bool{
	TypeAadharCard:       true,
	TypePANCard:          true,
	TypeCasteCertificate: true,
	TypeRationCard:       true,
	TypeVoterID:          true,
	TypeDrivingLicense:   true,
}

// ParseDocumentType constructs a DocumentType from external input.
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseDocumentType(s string) (DocumentType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "documentType cannot be empty")
	}
	t := DocumentType(s)
	if !validDocumentTypes[t] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid document type: "+s)
	}
	return t, nil
}

func (t DocumentType) String() string { return string(t) }

// Slug returns a storage-key-safe form of the type.
func (t DocumentType) Slug() string {
	return strings.ToLower(strings.ReplaceAll(string(t), " ", "-"))
}

// Status tracks a record through its verification lifecycle:
// pending -> verifying -> verified | failed. A fresh upload for the same
// (user, type) pair resets the record to pending.
type Status string

const (
	StatusPending   Status = "pending"
	StatusVerifying Status = "verifying"
	StatusVerified  Status = "verified"
	StatusFailed    Status = "failed"
)

// Record is the metadata for one uploaded document. The (UserID, Type) pair
// is unique: a re-upload supersedes the prior record instead of duplicating
// it. Only the verification fields mutate after creation.
type Record struct {
	ID                 string       `db:"id" json:"id"`
	UserID             string       `db:"user_id" json:"userId"`
	Type               DocumentType `db:"document_type" json:"documentType"`
	FileName           string       `db:"file_name" json:"fileName"`
	FileSizeBytes      int64        `db:"file_size_bytes" json:"fileSizeBytes"`
	StorageKey         string       `db:"storage_key" json:"storageKey"`
	Status             Status       `db:"status" json:"status"`
	IsVerified         bool         `db:"is_verified" json:"isVerified"`
	ConfidenceScore    float64      `db:"confidence_score" json:"confidenceScore"`
	VerificationErrors []string     `db:"verification_errors" json:"verificationErrors"`
	UploadedAt         time.Time    `db:"uploaded_at" json:"uploadedAt"`
	VerifiedAt         *time.Time   `db:"verified_at" json:"verifiedAt,omitempty"`
}

// VerificationResult is the normalized outcome of one verification attempt.
// ConfidenceScore is always in [0,1]; Errors is never nil.
type VerificationResult struct {
	IsValid         bool         `json:"isValid"`
	ConfidenceScore float64      `json:"confidenceScore"`
	DocumentType    DocumentType `json:"documentType"`
	Errors          []string     `json:"errors"`
}
