package indieauth

import (
	dto "github.com/janboddez/indieauth/internal/http/dto/indieauth"
	"github.com/janboddez/indieauth/internal/validation"
)

// MetadataService serves the IndieAuth server metadata document.
type MetadataService interface {
	Metadata() *dto.MetadataResponse
}

type metadataService struct {
	issuer string
}

// NewMetadataService creates a new MetadataService.
func NewMetadataService(d Deps) MetadataService {
	return &metadataService{issuer: d.Issuer}
}

func (s *metadataService) Metadata() *dto.MetadataResponse {
	return &dto.MetadataResponse{
		Issuer:                                 s.issuer + "/indieauth",
		AuthorizationEndpoint:                  s.issuer + "/indieauth/",
		TokenEndpoint:                          s.issuer + "/indieauth/token",
		RevocationEndpoint:                     s.issuer + "/indieauth/token/revocation",
		RevocationEndpointAuthMethodsSupported: []string{"none"},
		ScopesSupported:                        validation.Scopes,
		ResponseTypesSupported:                 []string{"code"},
		CodeChallengeMethodsSupported:          []string{"S256"},
	}
}
