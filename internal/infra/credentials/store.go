package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"climatefund/internal/infra"
	"climatefund/internal/sqlinline"
)

const (
	ProviderPinata = "pinata"
)

// Pinata is an API key pair for the Pinata pinning service.
type Pinata struct {
	APIKey    string
	SecretKey string
}

// Empty reports whether either half of the pair is missing.
func (p Pinata) Empty() bool {
	return strings.TrimSpace(p.APIKey) == "" || strings.TrimSpace(p.SecretKey) == ""
}

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Pinata returns the stored Pinata pair, or an empty pair when none is stored.
func (s *Store) Pinata(ctx context.Context) (Pinata, error) {
	token, props, err := s.token(ctx, ProviderPinata)
	if err != nil {
		return Pinata{}, err
	}
	secret, _ := props["secret"].(string)
	return Pinata{APIKey: token, SecretKey: strings.TrimSpace(secret)}, nil
}

func (s *Store) SetPinata(ctx context.Context, creds Pinata) error {
	creds.APIKey = strings.TrimSpace(creds.APIKey)
	creds.SecretKey = strings.TrimSpace(creds.SecretKey)
	if creds.Empty() {
		return errors.New("pinata api key and secret are required")
	}
	return s.upsert(ctx, ProviderPinata, creds.APIKey, map[string]any{"secret": creds.SecretKey})
}

func (s *Store) DeletePinata(ctx context.Context) error {
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteIntegrationToken, ProviderPinata)
	return err
}

// Resolve prefers explicitly configured credentials and falls back to the store.
func (s *Store) Resolve(ctx context.Context, configured Pinata) (Pinata, error) {
	if !configured.Empty() || s == nil || s.sql == nil {
		return configured, nil
	}
	return s.Pinata(ctx)
}

func (s *Store) token(ctx context.Context, provider string) (string, map[string]any, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	var raw []byte
	if err := row.Scan(&token, &raw); err != nil {
		if infra.IsNoRows(err) {
			return "", nil, nil
		}
		return "", nil, err
	}
	props := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &props); err != nil {
			return "", nil, fmt.Errorf("decode %s properties: %w", provider, err)
		}
	}
	return strings.TrimSpace(token), props, nil
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
