package satoru

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/antoniojosev/crm-satoru/internal/domain"
)

// InvestorFilter narrows an investor listing.
type InvestorFilter struct {
	KycStatus domain.KycStatus
	Search    string
}

// KycReviewData is the review trail recorded alongside a KYC decision.
type KycReviewData struct {
	ReviewedAt    time.Time `json:"reviewedAt"`
	ReviewComment string    `json:"reviewComment,omitempty"`
}

// KycDecisionRequest carries an admin's verdict on a KYC submission.
type KycDecisionRequest struct {
	Status  domain.KycStatus `json:"status"`
	KycData KycReviewData    `json:"kycData"`
}

// ListInvestors fetches investors, optionally filtered by KYC status and a
// free-text search over name, email and document number.
func (c *Client) ListInvestors(ctx context.Context, sessionID string, filter InvestorFilter) ([]domain.Investor, error) {
	q := url.Values{}
	if filter.KycStatus != "" {
		q.Set("kycStatus", string(filter.KycStatus))
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	path := "/investors"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var investors []domain.Investor
	err := c.send(ctx, "investors.list", sessionID, c.jsonRequest(http.MethodGet, path, nil), &investors)
	if err != nil {
		return nil, err
	}
	return investors, nil
}

// GetInvestor fetches a single investor by ID.
func (c *Client) GetInvestor(ctx context.Context, sessionID, id string) (*domain.Investor, error) {
	var investor domain.Investor
	err := c.send(ctx, "investors.get", sessionID, c.jsonRequest(http.MethodGet, "/investors/"+url.PathEscape(id), nil), &investor)
	if err != nil {
		return nil, err
	}
	return &investor, nil
}

// UpdateInvestorKyc records an admin's KYC decision for an investor. The
// review timestamp defaults to the decision time when the caller leaves it
// unset.
func (c *Client) UpdateInvestorKyc(ctx context.Context, sessionID, id string, req KycDecisionRequest) (*domain.Investor, error) {
	if req.KycData.ReviewedAt.IsZero() {
		req.KycData.ReviewedAt = time.Now().UTC()
	}

	var investor domain.Investor
	err := c.send(ctx, "investors.update_kyc", sessionID, c.jsonRequest(http.MethodPatch, "/investors/"+url.PathEscape(id)+"/kyc", req), &investor)
	if err != nil {
		return nil, err
	}
	return &investor, nil
}
