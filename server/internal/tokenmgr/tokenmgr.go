// Package tokenmgr wires pkg/token's generation/hash/validate primitives
// to the token repository: issuance, reissue, lookup, and the GitHub
// secret-scanning partner surface.
package tokenmgr

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"nebulafleet.dev/models"
	"nebulafleet.dev/pkg/token"
	"nebulafleet.dev/server/internal/repository"
)

type IDGenerator func() string
type Clock func() time.Time

// Manager issues and validates node bearer tokens.
type Manager struct {
	tokens *repository.TokenRepository
	secret string
	prefix string
	newID  IDGenerator
	now    Clock
}

func New(tokens *repository.TokenRepository, secret, prefix string, newID IDGenerator, now Clock) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{tokens: tokens, secret: secret, prefix: prefix, newID: newID, now: now}
}

// IssuedToken carries the full token value, revealed only at issuance
// and reissue time.
type IssuedToken struct {
	Row   *models.Token
	Value string
}

// Issue generates and persists a new active token for node.
func (m *Manager) Issue(ctx context.Context, nodeID string, ownerUserID *string) (*IssuedToken, error) {
	value, err := token.Generate(m.prefix)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	row := &models.Token{
		ID:          m.newID(),
		NodeID:      nodeID,
		Hash:        token.Hash(value, m.secret),
		Preview:     token.Preview(value),
		IsActive:    true,
		OwnerUserID: ownerUserID,
		CreatedAt:   m.now(),
	}
	if err := m.tokens.Insert(ctx, row); err != nil {
		return nil, err
	}
	return &IssuedToken{Row: row, Value: value}, nil
}

// Reissue deactivates the node's given token and issues a fresh one.
func (m *Manager) Reissue(ctx context.Context, oldTokenID, nodeID string, ownerUserID *string) (*IssuedToken, error) {
	if err := m.tokens.Deactivate(ctx, oldTokenID); err != nil {
		return nil, err
	}
	return m.Issue(ctx, nodeID, ownerUserID)
}

// Authenticate resolves the node a bearer value authenticates as, or
// ErrInvalidToken if no active token matches.
func (m *Manager) Authenticate(ctx context.Context, value string) (*models.Token, error) {
	if !token.FormatValid(value) {
		return nil, models.ErrInvalidToken
	}
	row, err := m.tokens.ByHash(ctx, token.Hash(value, m.secret))
	if err != nil {
		return nil, err
	}
	if !token.Validate(value, m.secret, row.Hash) {
		return nil, models.ErrInvalidToken
	}
	return row, nil
}

// VerifyHMAC checks an HMAC-SHA256 signature over body against secret
// using constant-time comparison, used by the secret-scanning verify/
// revoke endpoints.
func VerifyHMAC(body []byte, secret, providedHexSig string) bool {
	if secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(providedHexSig))
}

// SecretScanningCandidate is one row of a verify/revoke request body.
type SecretScanningCandidate struct {
	Token string `json:"token"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// SecretScanningVerified is the response shape for a matched token.
type SecretScanningVerified struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	Label    string `json:"label"`
	URL      string `json:"url"`
	IsActive bool   `json:"is_active"`
}

// Verify matches every candidate against known tokens, returning a row
// only for matches (unknown tokens yield no row, no information leak).
// resolveLabel/resolveURL let callers attach node name/URL without this
// package depending on the node repository.
func (m *Manager) Verify(ctx context.Context, candidates []SecretScanningCandidate, resolveLabel func(nodeID string) (label, url string, err error)) ([]SecretScanningVerified, error) {
	all, err := m.tokens.All(ctx)
	if err != nil {
		return nil, err
	}

	var out []SecretScanningVerified
	for _, c := range candidates {
		if !token.FormatValid(c.Token) {
			continue
		}
		for _, row := range all {
			if !token.Validate(c.Token, m.secret, row.Hash) {
				continue
			}
			label, url, err := resolveLabel(row.NodeID)
			if err != nil {
				continue
			}
			out = append(out, SecretScanningVerified{
				Token: c.Token, Type: c.Type, Label: label, URL: url, IsActive: row.IsActive,
			})
			break
		}
	}
	return out, nil
}

// Revoke deactivates every token matching one of the candidates,
// returning the count deactivated. Always succeeds, even for zero
// matches.
func (m *Manager) Revoke(ctx context.Context, candidates []SecretScanningCandidate) (int, error) {
	all, err := m.tokens.All(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, c := range candidates {
		if !token.FormatValid(c.Token) {
			continue
		}
		for _, row := range all {
			if !row.IsActive || !token.Validate(c.Token, m.secret, row.Hash) {
				continue
			}
			ok, err := m.tokens.DeactivateByHash(ctx, row.Hash)
			if err != nil {
				return count, err
			}
			if ok {
				count++
			}
			break
		}
	}
	return count, nil
}
