// Package verification talks to the document validation collaborator and
// drives the async verification flow for uploaded documents.
package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"seva/internal/document"
	"seva/internal/platform/config"
)

//go:generate mockgen -source=client.go -destination=mocks/verifier_mock.go -package=mocks

// Verifier is the outbound port to the validation collaborator. The HTTP
// client below is the real implementation; tests use the generated mock.
type Verifier interface {
	Verify(ctx context.Context, docType document.DocumentType, fileName string, payload []byte) (document.VerificationResult, error)
}

// Client calls the validation collaborator over HTTP. One POST per document:
// multipart body with the file bytes and the declared type, JSON result back.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.VerifierConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// wireResult uses pointers for the optional fields so a missing key can be
// told apart from an explicit zero and defaulted during normalization.
type wireResult struct {
	IsValid         bool     `json:"isValid"`
	ConfidenceScore *float64 `json:"confidenceScore"`
	DocumentType    *string  `json:"documentType"`
	Errors          []string `json:"errors"`
}

func (c *Client) Verify(ctx context.Context, docType document.DocumentType, fileName string, payload []byte) (document.VerificationResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return document.VerificationResult{}, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return document.VerificationResult{}, fmt.Errorf("write file part: %w", err)
	}
	if err := mw.WriteField("documentType", docType.String()); err != nil {
		return document.VerificationResult{}, fmt.Errorf("write type field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return document.VerificationResult{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", &body)
	if err != nil {
		return document.VerificationResult{}, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return document.VerificationResult{}, fmt.Errorf("call verifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read a little of the body for the error message; the verifier
		// returns short JSON errors.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return document.VerificationResult{}, fmt.Errorf("verifier returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var wire wireResult
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return document.VerificationResult{}, fmt.Errorf("decode verifier response: %w", err)
	}
	return normalize(wire, docType), nil
}

// normalize fills defaults for fields the verifier omitted and clamps the
// confidence score into [0,1].
func normalize(wire wireResult, requested document.DocumentType) document.VerificationResult {
	result := document.VerificationResult{
		IsValid:      wire.IsValid,
		DocumentType: requested,
		Errors:       wire.Errors,
	}
	if wire.ConfidenceScore != nil {
		result.ConfidenceScore = *wire.ConfidenceScore
	}
	if result.ConfidenceScore < 0 {
		result.ConfidenceScore = 0
	}
	if result.ConfidenceScore > 1 {
		result.ConfidenceScore = 1
	}
	if wire.DocumentType != nil && *wire.DocumentType != "" {
		result.DocumentType = document.DocumentType(*wire.DocumentType)
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}
	return result
}
