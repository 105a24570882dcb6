package session

import (
	"context"
)

// Vault exposes the token pair of a stored session to the core API client.
// Rotate persists a refreshed pair; Clear drops the whole session, which
// revokes user and tokens together.
type Vault struct {
	store Store
}

// NewVault creates a credential vault over the session store.
func NewVault(store Store) *Vault {
	return &Vault{store: store}
}

func (v *Vault) Credentials(ctx context.Context, sessionID string) (string, string, error) {
	record, err := v.store.Get(ctx, sessionID)
	if err != nil {
		return "", "", err
	}
	return record.AccessToken, record.RefreshToken, nil
}

func (v *Vault) Rotate(ctx context.Context, sessionID, accessToken, refreshToken string) error {
	record, err := v.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	record.AccessToken = accessToken
	record.RefreshToken = refreshToken
	return v.store.Save(ctx, record)
}

func (v *Vault) Clear(ctx context.Context, sessionID string) error {
	return v.store.Delete(ctx, sessionID)
}
