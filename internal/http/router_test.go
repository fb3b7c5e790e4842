package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seva/internal/application"
	applicationhandler "seva/internal/application/handler"
	"seva/internal/assistant"
	assistanthandler "seva/internal/assistant/handler"
	"seva/internal/audit"
	"seva/internal/auth"
	authhandler "seva/internal/auth/handler"
	"seva/internal/document"
	documenthandler "seva/internal/document/handler"
	"seva/internal/document/storage"
	"seva/internal/platform/config"
	"seva/internal/profile"
	profilehandler "seva/internal/profile/handler"
	"seva/internal/scheme"
	schemehandler "seva/internal/scheme/handler"
	"seva/internal/verification"
	"seva/pkg/testutil"
)

type testStack struct {
	router http.Handler
	tokens *auth.TokenService
}

// newTestStack wires the whole portal on in-memory backends, with a stub
// verifier service behind the real HTTP client.
func newTestStack(t *testing.T) *testStack {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	verifierSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"isValid": true, "confidenceScore": 0.9, "errors": []}`))
	}))
	t.Cleanup(verifierSrv.Close)

	catalog, err := scheme.LoadCatalog()
	require.NoError(t, err)

	auditor := audit.NewPublisher(logger)
	tokens := auth.NewTokenService(config.AuthConfig{
		JWTSigningKey: "router-test-key",
		TokenTTL:      time.Hour,
		Issuer:        "seva-test",
	})

	profileSvc := profile.NewService(profile.NewInMemoryStore(), nil, nil, nil, logger)
	authSvc := auth.NewService(auth.NewInMemoryStore(), tokens, profileSvc, auditor, nil, logger)

	verifier := verification.NewClient(config.VerifierConfig{BaseURL: verifierSrv.URL, Timeout: 5 * time.Second})
	docSvc := document.NewService(document.NewInMemoryStore(), storage.NewInMemoryBlobStore(),
		verifier, auditor, nil, logger, 1<<20)
	dispatcher := verification.NewDispatcher(verifier, docSvc, nil, logger, 5*time.Second)
	docSvc.SetDispatcher(dispatcher)

	appSvc := application.NewService(application.NewInMemoryStore(), catalog, docSvc, auditor, nil, logger)
	assistantSvc := assistant.NewService(nil, auditor, logger)

	appHandler := applicationhandler.New(appSvc, logger)
	docHandler := documenthandler.New(docSvc, logger)

	router := NewRouter(Handlers{
		Auth:            authhandler.New(authSvc, logger),
		Profile:         profilehandler.New(profileSvc, logger),
		Scheme:          schemehandler.New(catalog, profileSvc, nil, logger),
		Document:        docHandler,
		Application:     appHandler,
		Assistant:       assistanthandler.New(assistantSvc, logger),
		VerifyRegistrar: docHandler,
		AdminRegistrar:  appHandler,
	}, tokens, nil, logger)

	return &testStack{router: router, tokens: tokens}
}

func (ts *testStack) registerUser(t *testing.T, email string) string {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/register", map[string]any{
		"name":         "Asha Devi",
		"email":        email,
		"password":     "correct-horse",
		"location":     "Bihar",
		"annualIncome": 50000,
	})
	rr := testutil.DoRequest(ts.router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	session := testutil.UnmarshalResponse[auth.Session](t, rr)
	require.NotEmpty(t, session.Token)
	return session.Token
}

func authed(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestStack(t)

	rr := testutil.DoRequest(ts.router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.DoRequest(ts.router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestAuthFlow(t *testing.T) {
	ts := newTestStack(t)

	token := ts.registerUser(t, "asha@example.com")

	t.Run("login works after registration", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/login", map[string]string{
			"email":    "asha@example.com",
			"password": "correct-horse",
		})
		rr := testutil.DoRequest(ts.router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("protected route without token", func(t *testing.T) {
		rr := testutil.DoRequest(ts.router, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("protected route with token", func(t *testing.T) {
		rr := testutil.DoRequest(ts.router, authed(httptest.NewRequest(http.MethodGet, "/api/profile", nil), token))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})
}

func TestSchemeMatchingFlow(t *testing.T) {
	ts := newTestStack(t)
	token := ts.registerUser(t, "asha@example.com")

	type schemeList struct {
		Schemes []scheme.Scheme `json:"schemes"`
		Total   int             `json:"total"`
	}

	rr := testutil.DoRequest(ts.router, authed(httptest.NewRequest(http.MethodGet, "/api/schemes/all", nil), token))
	testutil.AssertStatus(t, rr, http.StatusOK)
	all := testutil.UnmarshalResponse[schemeList](t, rr)
	require.NotZero(t, all.Total)

	rr = testutil.DoRequest(ts.router, authed(httptest.NewRequest(http.MethodGet, "/api/schemes", nil), token))
	testutil.AssertStatus(t, rr, http.StatusOK)
	matched := testutil.UnmarshalResponse[schemeList](t, rr)
	assert.Less(t, matched.Total, all.Total, "income cap filters some schemes")
	assert.NotZero(t, matched.Total)
}

func TestDocumentUploadFlow(t *testing.T) {
	ts := newTestStack(t)
	token := ts.registerUser(t, "asha@example.com")

	req := testutil.NewMultipartRequest(t, http.MethodPost, "/api/documents",
		"file", "aadhar.pdf", []byte("pdf-bytes"), map[string]string{"documentType": "Aadhar Card"})
	rr := testutil.DoRequest(ts.router, authed(req, token))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	rec := testutil.UnmarshalResponse[document.Record](t, rr)
	assert.Equal(t, document.TypeAadharCard, rec.Type)
	assert.Equal(t, document.StatusPending, rec.Status)

	// Async verification against the stub verifier settles quickly.
	require.Eventually(t, func() bool {
		listReq := authed(httptest.NewRequest(http.MethodGet, "/api/documents", nil), token)
		listRR := testutil.DoRequest(ts.router, listReq)
		if listRR.Code != http.StatusOK {
			return false
		}
		list := testutil.UnmarshalResponse[struct {
			Documents []document.Record `json:"documents"`
		}](t, listRR)
		return len(list.Documents) == 1 && list.Documents[0].Status == document.StatusVerified
	}, 5*time.Second, 50*time.Millisecond)

	t.Run("invalid type rejected", func(t *testing.T) {
		req := testutil.NewMultipartRequest(t, http.MethodPost, "/api/documents",
			"file", "x.pdf", []byte("bytes"), map[string]string{"documentType": "Passport"})
		rr := testutil.DoRequest(ts.router, authed(req, token))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertErrorCode(t, rr, "invalid_input")
	})

	t.Run("stateless verify endpoint is public", func(t *testing.T) {
		req := testutil.NewMultipartRequest(t, http.MethodPost, "/verify",
			"file", "x.pdf", []byte("bytes"), map[string]string{"documentType": "PAN Card"})
		rr := testutil.DoRequest(ts.router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		result := testutil.UnmarshalResponse[document.VerificationResult](t, rr)
		assert.True(t, result.IsValid)
	})
}

func TestApplicationFlow(t *testing.T) {
	ts := newTestStack(t)
	token := ts.registerUser(t, "asha@example.com")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/applications", map[string]any{
		"schemeId": "pm-kisan",
	})
	rr := testutil.DoRequest(ts.router, authed(req, token))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	view := testutil.UnmarshalResponse[application.View](t, rr)
	assert.Equal(t, application.StatusPending, view.Status)
	assert.Contains(t, view.MissingDocuments, "Aadhar Card")

	t.Run("duplicate application conflicts", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/applications", map[string]any{
			"schemeId": "pm-kisan",
		})
		rr := testutil.DoRequest(ts.router, authed(req, token))
		testutil.AssertStatus(t, rr, http.StatusConflict)
	})

	t.Run("admin routes are forbidden for citizens", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPatch, "/api/admin/applications/"+view.ID, map[string]string{
			"status": "approved",
		})
		rr := testutil.DoRequest(ts.router, authed(req, token))
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("admin can decide", func(t *testing.T) {
		adminToken, err := ts.tokens.Issue("admin-1", true)
		require.NoError(t, err)

		req := testutil.NewJSONRequest(t, http.MethodPatch, "/api/admin/applications/"+view.ID, map[string]string{
			"status": "approved",
		})
		rr := testutil.DoRequest(ts.router, authed(req, adminToken))
		testutil.AssertStatus(t, rr, http.StatusOK)

		decided := testutil.UnmarshalResponse[application.Application](t, rr)
		assert.Equal(t, application.StatusApproved, decided.Status)
	})
}

func TestAssistantUnconfigured(t *testing.T) {
	ts := newTestStack(t)
	token := ts.registerUser(t, "asha@example.com")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/assistant/chat", map[string]string{
		"message": "Which schemes can I apply for?",
	})
	rr := testutil.DoRequest(ts.router, authed(req, token))
	testutil.AssertStatus(t, rr, http.StatusBadGateway)
	testutil.AssertErrorCode(t, rr, "upstream_error")
}
