package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniojosev/crm-satoru/internal/domain"
	"github.com/antoniojosev/crm-satoru/internal/satoru"
	apperrors "github.com/antoniojosev/crm-satoru/pkg/errors"
	"github.com/antoniojosev/crm-satoru/pkg/logger"
)

type fakeInvestorAPI struct {
	investors []domain.Investor
	kycCalls  atomic.Int32
}

func (f *fakeInvestorAPI) router() http.Handler {
	r := chi.NewRouter()

	r.Get("/investors", func(w http.ResponseWriter, req *http.Request) {
		kyc := req.URL.Query().Get("kycStatus")
		out := make([]domain.Investor, 0, len(f.investors))
		for _, inv := range f.investors {
			if kyc == "" || string(inv.KycStatus) == kyc {
				out = append(out, inv)
			}
		}
		respond(w, out)
	})

	r.Get("/investors/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		for _, inv := range f.investors {
			if inv.ID == id {
				respond(w, inv)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Investor not found","statusCode":404}`))
	})

	r.Patch("/investors/{id}/kyc", func(w http.ResponseWriter, req *http.Request) {
		f.kycCalls.Add(1)
		id := chi.URLParam(req, "id")
		var body satoru.KycDecisionRequest
		_ = json.NewDecoder(req.Body).Decode(&body)
		for i, inv := range f.investors {
			if inv.ID == id {
				f.investors[i].KycStatus = body.Status
				respond(w, f.investors[i])
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})

	return r
}

func newInvestorCache(t *testing.T, handler http.Handler) *InvestorCache {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := satoru.NewClient(
		satoru.Config{BaseURL: srv.URL, Timeout: 5 * time.Second},
		fakeVault{},
		logger.New("satoru-admin-test", "error"),
	)
	return NewInvestorCache(client)
}

func fixtureInvestors() []domain.Investor {
	return []domain.Investor{
		{ID: "i-1", FirstName: "Ana", LastName: "García", Email: "ana@example.com", DocumentNumber: "V-111", KycStatus: domain.KycStatusPending},
		{ID: "i-2", FirstName: "Luis", LastName: "Pérez", Email: "luis@example.com", DocumentNumber: "V-222", KycStatus: domain.KycStatusInReview},
		{ID: "i-3", FirstName: "María", LastName: "López", Email: "maria@example.com", DocumentNumber: "V-333", KycStatus: domain.KycStatusApproved},
	}
}

func TestInvestorCacheFetchAllAndKycFilter(t *testing.T) {
	api := &fakeInvestorAPI{investors: fixtureInvestors()}
	c := newInvestorCache(t, api.router())

	got, err := c.FetchAll(context.Background(), "sess-1", satoru.InvestorFilter{KycStatus: domain.KycStatusPending})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ana", got[0].FirstName)
}

func TestInvestorCacheInMemoryFilter(t *testing.T) {
	api := &fakeInvestorAPI{investors: fixtureInvestors()}
	c := newInvestorCache(t, api.router())

	_, err := c.FetchAll(context.Background(), "sess-1", satoru.InvestorFilter{})
	require.NoError(t, err)

	byStatus := c.Filter(domain.KycStatusInReview, "")
	require.Len(t, byStatus, 1)
	assert.Equal(t, "Luis", byStatus[0].FirstName)

	byName := c.Filter("", "garcía")
	require.Len(t, byName, 1)
	assert.Equal(t, "Ana", byName[0].FirstName)

	byDocument := c.Filter("", "v-333")
	require.Len(t, byDocument, 1)
	assert.Equal(t, "María", byDocument[0].FirstName)

	both := c.Filter(domain.KycStatusApproved, "luis")
	assert.Empty(t, both)
}

func TestInvestorCacheKycApproval(t *testing.T) {
	api := &fakeInvestorAPI{investors: fixtureInvestors()}
	c := newInvestorCache(t, api.router())
	ctx := context.Background()

	_, err := c.FetchAll(ctx, "sess-1", satoru.InvestorFilter{})
	require.NoError(t, err)

	updated, err := c.UpdateKyc(ctx, "sess-1", "i-1", satoru.KycDecisionRequest{
		Status:  domain.KycStatusApproved,
		KycData: satoru.KycReviewData{ReviewComment: "Documentos en orden"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KycStatusApproved, updated.KycStatus)
	assert.Equal(t, domain.KycStatusApproved, c.Snapshot().Items[0].KycStatus)
}

func TestInvestorCacheKycDecisionIsOneShot(t *testing.T) {
	api := &fakeInvestorAPI{investors: fixtureInvestors()}
	c := newInvestorCache(t, api.router())
	ctx := context.Background()

	_, err := c.FetchAll(ctx, "sess-1", satoru.InvestorFilter{})
	require.NoError(t, err)

	// i-3 is already APPROVED.
	_, err = c.UpdateKyc(ctx, "sess-1", "i-3", satoru.KycDecisionRequest{Status: domain.KycStatusRejected})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	assert.Equal(t, int32(0), api.kycCalls.Load(), "decided submissions never reach the core API")
}

func TestInvestorCacheKycRejectsNonDecisionStatuses(t *testing.T) {
	c := newInvestorCache(t, (&fakeInvestorAPI{}).router())

	_, err := c.UpdateKyc(context.Background(), "sess-1", "i-1", satoru.KycDecisionRequest{
		Status: domain.KycStatusInReview,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestInvestorCacheTransportFailureUsesFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close()

	client := satoru.NewClient(
		satoru.Config{BaseURL: srv.URL, Timeout: time.Second},
		fakeVault{},
		logger.New("satoru-admin-test", "error"),
	)
	c := NewInvestorCache(client)

	_, err := c.FetchAll(context.Background(), "sess-1", satoru.InvestorFilter{})
	require.Error(t, err)
	assert.Equal(t, "Error al cargar inversores", apperrors.Message(err, ""))
}
