package satoru

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniojosev/crm-satoru/internal/domain"
	apperrors "github.com/antoniojosev/crm-satoru/pkg/errors"
	"github.com/antoniojosev/crm-satoru/pkg/logger"
)

// memVault is an in-memory CredentialVault for tests.
type memVault struct {
	mu        sync.Mutex
	access    string
	refresh   string
	rotations int
	cleared   bool
}

func (v *memVault) Credentials(_ context.Context, _ string) (string, string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.access, v.refresh, nil
}

func (v *memVault) Rotate(_ context.Context, _, access, refresh string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.access = access
	v.refresh = refresh
	v.rotations++
	return nil
}

func (v *memVault) Clear(_ context.Context, _ string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.access = ""
	v.refresh = ""
	v.cleared = true
	return nil
}

func newTestClient(t *testing.T, baseURL string, vault CredentialVault) *Client {
	t.Helper()
	return NewClient(Config{BaseURL: baseURL, Timeout: 5 * time.Second}, vault, logger.New("satoru-admin-test", "error"))
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 400, "data": data})
}

func TestClientUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/p-1", r.URL.Path)
		assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, domain.Project{ID: "p-1", Name: "Torre Futura", Status: domain.ProjectStatusFunding})
	}))
	defer srv.Close()

	vault := &memVault{access: "access-token", refresh: "refresh-token"}
	client := newTestClient(t, srv.URL, vault)

	project, err := client.GetProject(context.Background(), "sess-1", "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Torre Futura", project.Name)
	assert.Equal(t, domain.ProjectStatusFunding, project.Status)
}

func TestClientAcceptsBareResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]domain.Project{{ID: "p-1"}, {ID: "p-2"}})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, &memVault{access: "a", refresh: "r"})

	projects, err := client.ListProjects(context.Background(), "sess-1", "")
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "p-2", projects[1].ID)
}

func TestClientListProjectsSendsStatusFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "FUNDING", r.URL.Query().Get("status"))
		writeEnvelope(w, http.StatusOK, []domain.Project{{ID: "p-1", Status: domain.ProjectStatusFunding}})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, &memVault{access: "a", refresh: "r"})

	projects, err := client.ListProjects(context.Background(), "sess-1", domain.ProjectStatusFunding)
	require.NoError(t, err)
	require.Len(t, projects, 1)
}

func TestClientRefreshesExactlyOnceOn401(t *testing.T) {
	var apiCalls, refreshCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			refreshCalls.Add(1)
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "old-refresh", body["refreshToken"])
			writeEnvelope(w, http.StatusOK, TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"})
			return
		}

		apiCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer new-access" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthorized","statusCode":401}`))
			return
		}
		writeEnvelope(w, http.StatusOK, domain.Project{ID: "p-1"})
	}))
	defer srv.Close()

	vault := &memVault{access: "old-access", refresh: "old-refresh"}
	client := newTestClient(t, srv.URL, vault)

	project, err := client.GetProject(context.Background(), "sess-1", "p-1")
	require.NoError(t, err)
	assert.Equal(t, "p-1", project.ID)

	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, int32(2), apiCalls.Load())
	assert.Equal(t, "new-access", vault.access)
	assert.Equal(t, "new-refresh", vault.refresh)
	assert.Equal(t, 1, vault.rotations)
}

func TestClientRefreshFailureClearsVault(t *testing.T) {
	var refreshCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			refreshCalls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid refresh token","statusCode":401}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthorized","statusCode":401}`))
	}))
	defer srv.Close()

	vault := &memVault{access: "stale", refresh: "stale-refresh"}
	client := newTestClient(t, srv.URL, vault)

	_, err := client.GetProject(context.Background(), "sess-1", "p-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSessionExpired))
	assert.True(t, vault.cleared)
	assert.Equal(t, int32(1), refreshCalls.Load())
}

func TestClientDoesNotLoopWhenRetryStillUnauthorized(t *testing.T) {
	var apiCalls, refreshCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			refreshCalls.Add(1)
			writeEnvelope(w, http.StatusOK, TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"})
			return
		}
		apiCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthorized","statusCode":401}`))
	}))
	defer srv.Close()

	vault := &memVault{access: "old", refresh: "old-refresh"}
	client := newTestClient(t, srv.URL, vault)

	_, err := client.GetProject(context.Background(), "sess-1", "p-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	assert.Equal(t, int32(2), apiCalls.Load(), "original call plus exactly one replay")
	assert.Equal(t, int32(1), refreshCalls.Load())
}

func TestClientEmptyRefreshTokenExpiresWithoutNetworkCall(t *testing.T) {
	var refreshCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			refreshCalls.Add(1)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthorized","statusCode":401}`))
	}))
	defer srv.Close()

	vault := &memVault{access: "stale", refresh: ""}
	client := newTestClient(t, srv.URL, vault)

	_, err := client.GetProject(context.Background(), "sess-1", "p-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSessionExpired))
	assert.True(t, vault.cleared)
	assert.Equal(t, int32(0), refreshCalls.Load())
}

func TestClientSurfacesUpstreamMessagesVerbatim(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantErr     error
	}{
		{
			name:        "single message",
			status:      http.StatusNotFound,
			body:        `{"message":"Project not found","statusCode":404}`,
			wantMessage: "Project not found",
			wantErr:     apperrors.ErrNotFound,
		},
		{
			name:        "validation array joined",
			status:      http.StatusBadRequest,
			body:        `{"message":["name should not be empty","tokenPrice must be a positive number"],"error":"Bad Request","statusCode":400}`,
			wantMessage: "name should not be empty; tokenPrice must be a positive number",
			wantErr:     apperrors.ErrInvalidInput,
		},
		{
			name:        "conflict",
			status:      http.StatusConflict,
			body:        `{"message":"Email already registered","statusCode":409}`,
			wantMessage: "Email already registered",
			wantErr:     apperrors.ErrConflict,
		},
		{
			name:        "forbidden",
			status:      http.StatusForbidden,
			body:        `{"message":"Insufficient permissions","statusCode":403}`,
			wantMessage: "Insufficient permissions",
			wantErr:     apperrors.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := newTestClient(t, srv.URL, &memVault{access: "a", refresh: "r"})

			_, err := client.CreateProject(context.Background(), "sess-1", CreateProjectRequest{Name: "x"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.Equal(t, tt.wantMessage, apperrors.Message(err, "fallback"))
		})
	}
}

func TestClientNetworkFailureIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := newTestClient(t, srv.URL, &memVault{access: "a", refresh: "r"})

	_, err := client.DashboardStats(context.Background(), "sess-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
	assert.Equal(t, "fallback", apperrors.Message(err, "fallback"), "transport errors never leak internals")
}

func TestClientLoginSendsNoBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, LoginResult{
			User:         domain.User{ID: "u-1", Role: domain.RoleAdmin},
			AccessToken:  "access",
			RefreshToken: "refresh",
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	result, err := client.Login(context.Background(), LoginRequest{Email: "admin@satoru.io", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", result.User.ID)
	assert.Equal(t, "access", result.AccessToken)
}

func TestClientUploadImagesRebuildsMultipartOnRetry(t *testing.T) {
	var uploads atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			writeEnvelope(w, http.StatusOK, TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"})
			return
		}

		uploads.Add(1)
		assert.Equal(t, "/projects/p-1/images/upload", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer new-access" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthorized","statusCode":401}`))
			return
		}

		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["images"]
		require.Len(t, files, 1)
		assert.Equal(t, "facade.jpg", files[0].Filename)
		writeEnvelope(w, http.StatusOK, domain.Project{ID: "p-1", Images: []string{"facade.jpg"}})
	}))
	defer srv.Close()

	vault := &memVault{access: "old", refresh: "old-refresh"}
	client := newTestClient(t, srv.URL, vault)

	project, err := client.UploadProjectImages(context.Background(), "sess-1", "p-1", []ImageFile{
		{Filename: "facade.jpg", ContentType: "image/jpeg", Data: []byte("jpeg-bytes")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"facade.jpg"}, project.Images)
	assert.Equal(t, int32(2), uploads.Load(), "body must be rebuilt for the replay")
}

func TestClientKycDecisionPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/investors/i-1/kyc", r.URL.Path)

		var body struct {
			Status  string `json:"status"`
			KycData struct {
				ReviewedAt    time.Time `json:"reviewedAt"`
				ReviewComment string    `json:"reviewComment"`
			} `json:"kycData"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "APPROVED", body.Status)
		assert.Equal(t, "Documentos verificados correctamente", body.KycData.ReviewComment)
		assert.False(t, body.KycData.ReviewedAt.IsZero(), "reviewedAt must be stamped when the caller omits it")

		writeEnvelope(w, http.StatusOK, domain.Investor{ID: "i-1", KycStatus: domain.KycStatusApproved})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, &memVault{access: "a", refresh: "r"})

	investor, err := client.UpdateInvestorKyc(context.Background(), "sess-1", "i-1", KycDecisionRequest{
		Status:  domain.KycStatusApproved,
		KycData: KycReviewData{ReviewComment: "Documentos verificados correctamente"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KycStatusApproved, investor.KycStatus)
}
