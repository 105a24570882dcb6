package cache

import (
	"context"
	"strings"

	"github.com/antoniojosev/crm-satoru/internal/domain"
	"github.com/antoniojosev/crm-satoru/internal/satoru"
	apperrors "github.com/antoniojosev/crm-satoru/pkg/errors"
)

func investorKey(i domain.Investor) string { return i.ID }

// InvestorCache serves investor reads from memory and keeps KYC decisions
// reconciled into the cached list.
type InvestorCache struct {
	state  state[domain.Investor]
	client *satoru.Client
}

// NewInvestorCache creates an investor cache over the core API client.
func NewInvestorCache(client *satoru.Client) *InvestorCache {
	return &InvestorCache{client: client}
}

// Snapshot returns a copy of the cached investors.
func (c *InvestorCache) Snapshot() Snapshot[domain.Investor] {
	return c.state.snapshot()
}

// FetchAll loads investors from the core API, replacing the cached list
// wholesale.
func (c *InvestorCache) FetchAll(ctx context.Context, sessionID string, filter satoru.InvestorFilter) ([]domain.Investor, error) {
	investors, err := c.client.ListInvestors(ctx, sessionID, filter)
	if err != nil {
		err = userFacing(err, "Error al cargar inversores")
		c.state.setError(apperrors.Message(err, "Error al cargar inversores"))
		return nil, err
	}
	c.state.replaceAll(investors)
	return investors, nil
}

// FetchOne loads a single investor and makes it the focused item.
func (c *InvestorCache) FetchOne(ctx context.Context, sessionID, id string) (*domain.Investor, error) {
	investor, err := c.client.GetInvestor(ctx, sessionID, id)
	if err != nil {
		err = userFacing(err, "Inversor no encontrado")
		c.state.setError(apperrors.Message(err, "Inversor no encontrado"))
		return nil, err
	}
	c.state.setCurrent(investor)
	return investor, nil
}

// ClearCurrent drops the focused investor.
func (c *InvestorCache) ClearCurrent() {
	c.state.setCurrent(nil)
}

// Filter narrows the cached list in memory: by KYC status and by a
// case-insensitive match over name, email and document number. It never
// touches the network.
func (c *InvestorCache) Filter(kycStatus domain.KycStatus, search string) []domain.Investor {
	snap := c.state.snapshot()
	search = strings.ToLower(strings.TrimSpace(search))

	out := make([]domain.Investor, 0, len(snap.Items))
	for _, inv := range snap.Items {
		if kycStatus != "" && inv.KycStatus != kycStatus {
			continue
		}
		if search != "" && !investorMatches(inv, search) {
			continue
		}
		out = append(out, inv)
	}
	return out
}

func investorMatches(inv domain.Investor, search string) bool {
	fields := []string{
		inv.FirstName + " " + inv.LastName,
		inv.Email,
		inv.DocumentNumber,
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// UpdateKyc records a KYC decision. A submission that was already decided
// is rejected locally; the platform treats decisions as final.
func (c *InvestorCache) UpdateKyc(ctx context.Context, sessionID, id string, req satoru.KycDecisionRequest) (*domain.Investor, error) {
	if req.Status != domain.KycStatusApproved && req.Status != domain.KycStatusRejected {
		return nil, apperrors.InvalidInput("la decisión KYC debe ser APPROVED o REJECTED")
	}

	current, err := c.currentInvestor(ctx, sessionID, id)
	if err != nil {
		err = userFacing(err, "Error al actualizar KYC")
		c.state.setError(apperrors.Message(err, "Error al actualizar KYC"))
		return nil, err
	}
	if current.KycStatus.Decided() {
		return nil, apperrors.Conflict("la verificación KYC ya fue decidida")
	}

	investor, err := c.client.UpdateInvestorKyc(ctx, sessionID, id, req)
	if err != nil {
		err = userFacing(err, "Error al actualizar KYC")
		c.state.setError(apperrors.Message(err, "Error al actualizar KYC"))
		return nil, err
	}
	c.state.apply(*investor, OpUpdate, investorKey)
	return investor, nil
}

func (c *InvestorCache) currentInvestor(ctx context.Context, sessionID, id string) (*domain.Investor, error) {
	snap := c.state.snapshot()
	if snap.Current != nil && snap.Current.ID == id {
		return snap.Current, nil
	}
	for i := range snap.Items {
		if snap.Items[i].ID == id {
			return &snap.Items[i], nil
		}
	}
	return c.client.GetInvestor(ctx, sessionID, id)
}
