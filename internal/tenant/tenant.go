package tenant

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gsarma/judgekit/internal/crypto"
	"github.com/gsarma/judgekit/internal/store"
)

const apiKeyPrefix = "jk_"

var ErrInvalidAPIKey = errors.New("invalid API key")

type Service struct {
	queries store.Querier
	keys    *crypto.Keyring
}

func NewService(q store.Querier, keys *crypto.Keyring) *Service {
	return &Service{queries: q, keys: keys}
}

// Create provisions a new tenant, returning the raw API key (shown once).
func (s *Service) Create(ctx context.Context) (apiKey string, tenantID uuid.UUID, err error) {
	rawKey, err := generateAPIKey()
	if err != nil {
		return "", uuid.Nil, err
	}

	_, sealedKey, err := s.keys.NewDataKey()
	if err != nil {
		return "", uuid.Nil, err
	}

	t, err := s.queries.CreateTenant(ctx, store.CreateTenantParams{
		ApiKeyHash:       hashAPIKey(rawKey),
		EncryptedDataKey: sealedKey,
	})
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("create tenant: %w", err)
	}
	return rawKey, t.ID, nil
}

// Authenticate resolves a tenant from a raw API key.
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*store.Tenant, error) {
	if rawKey == "" {
		return nil, ErrInvalidAPIKey
	}
	t, err := s.queries.GetTenantByAPIKeyHash(ctx, hashAPIKey(rawKey))
	if err != nil {
		return nil, ErrInvalidAPIKey
	}
	return &t, nil
}

// SealPayload encrypts a job payload with the tenant's data key, bound to jobType.
func (s *Service) SealPayload(t *store.Tenant, jobType string, payload []byte) ([]byte, error) {
	key, err := s.keys.OpenDataKey(t.EncryptedDataKey)
	if err != nil {
		return nil, err
	}
	return crypto.Seal(key, payload, []byte(jobType))
}

func (s *Service) OpenPayload(t *store.Tenant, jobType string, sealed []byte) ([]byte, error) {
	key, err := s.keys.OpenDataKey(t.EncryptedDataKey)
	if err != nil {
		return nil, err
	}
	payload, err := crypto.Open(key, sealed, []byte(jobType))
	if err != nil {
		return nil, fmt.Errorf("open %s payload: %w", jobType, err)
	}
	return payload, nil
}

func hashAPIKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate API key: %w", err)
	}
	return apiKeyPrefix + hex.EncodeToString(b), nil
}
