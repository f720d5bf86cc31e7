package indieauth

import (
	"net/http"

	httperrors "github.com/janboddez/indieauth/internal/http/errors"
	svc "github.com/janboddez/indieauth/internal/http/services/indieauth"
)

// MetadataController serves GET /indieauth/metadata.
type MetadataController struct {
	service svc.MetadataService
}

// NewMetadataController creates the controller.
func NewMetadataController(s svc.MetadataService) *MetadataController {
	return &MetadataController{service: s}
}

// Metadata handles GET /indieauth/metadata.
func (c *MetadataController) Metadata(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	httperrors.WriteJSON(w, http.StatusOK, c.service.Metadata())
}
