package indieauth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/janboddez/indieauth/internal/metrics"
	"github.com/janboddez/indieauth/internal/observability/logger"
	"github.com/janboddez/indieauth/internal/store"
)

// RevokeService revokes access tokens. Revocation is idempotent:
// unknown or already-revoked tokens are not an error.
type RevokeService interface {
	Revoke(ctx context.Context, bearer, tokenParam string) error
}

type revokeService struct {
	tokens store.TokenStore
}

// NewRevokeService creates a new RevokeService.
func NewRevokeService(d Deps) RevokeService {
	return &revokeService{tokens: d.Tokens}
}

func (s *revokeService) Revoke(ctx context.Context, bearer, tokenParam string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("indieauth.revoke"))

	s.revokeOne(ctx, log, bearer)
	if tokenParam != "" && tokenParam != bearer {
		s.revokeOne(ctx, log, tokenParam)
	}
	return nil
}

func (s *revokeService) revokeOne(ctx context.Context, log *zap.Logger, value string) {
	if value == "" {
		return
	}
	tok, err := s.tokens.FindByValue(ctx, value)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn("revocation lookup failed", logger.Err(err))
		}
		return
	}
	if err := s.tokens.Delete(ctx, tok.ID); err != nil {
		log.Warn("revocation delete failed", logger.TokenID(tok.ID), logger.Err(err))
		return
	}
	metrics.TokensRevoked.Inc()
	log.Info("access token revoked", logger.TokenID(tok.ID), logger.UserID(tok.UserID))
}
