package indieauth

import (
	"context"
	"errors"
	"strings"
	"time"

	dto "github.com/janboddez/indieauth/internal/http/dto/indieauth"
	"github.com/janboddez/indieauth/internal/observability/logger"
	"github.com/janboddez/indieauth/internal/store"
)

// IntrospectService answers token verification requests.
type IntrospectService interface {
	Introspect(ctx context.Context, bearer string) (*dto.IntrospectResponse, error)
}

// Introspection errors.
var (
	ErrIntrospectMissingToken = errors.New("missing_token")
	ErrIntrospectUnknownToken = errors.New("unknown_token")
	ErrIntrospectServerError  = errors.New("server_error")
)

type introspectService struct {
	tokens store.TokenStore
	users  store.UserDirectory
}

// NewIntrospectService creates a new IntrospectService.
func NewIntrospectService(d Deps) IntrospectService {
	return &introspectService{tokens: d.Tokens, users: d.Users}
}

func (s *introspectService) Introspect(ctx context.Context, bearer string) (*dto.IntrospectResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("indieauth.introspect"))

	if bearer == "" {
		return nil, ErrIntrospectMissingToken
	}

	tok, err := s.tokens.FindByValue(ctx, bearer)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("unknown bearer token presented")
			return nil, ErrIntrospectUnknownToken
		}
		log.Error("token lookup failed", logger.Err(err))
		return nil, ErrIntrospectServerError
	}

	user, err := s.users.GetByID(ctx, tok.UserID)
	if err != nil {
		log.Error("token user lookup failed", logger.UserID(tok.UserID), logger.Err(err))
		return nil, ErrIntrospectServerError
	}

	// Best-effort usage stamp; a failed touch does not fail the request.
	if err := s.tokens.Touch(ctx, tok.ID, time.Now()); err != nil {
		log.Warn("last-used stamp failed", logger.TokenID(tok.ID), logger.Err(err))
	}

	return &dto.IntrospectResponse{
		Me:       user.URL,
		ClientID: tok.Name,
		Scope:    strings.Join(tok.Abilities, " "),
	}, nil
}
