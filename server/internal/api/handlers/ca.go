package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nebulafleet.dev/models"
	"nebulafleet.dev/server/internal/apierr"
	"nebulafleet.dev/server/internal/certmanager"
	"nebulafleet.dev/server/internal/repository"
)

// CAHandler implements the /v1/ca surface.
type CAHandler struct {
	certs *certmanager.Manager
	cas   *repository.CARepository
}

func NewCAHandler(certs *certmanager.Manager, cas *repository.CARepository) *CAHandler {
	return &CAHandler{certs: certs, cas: cas}
}

// List handles GET /v1/ca.
func (h *CAHandler) List(c *gin.Context) {
	cas, err := h.cas.List(c.Request.Context())
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cas)
}

type createCARequest struct {
	Name        string             `json:"name"`
	CertVersion models.CertVersion `json:"cert_version"`
}

// Create handles POST /v1/ca/create.
func (h *CAHandler) Create(c *gin.Context) {
	var req createCARequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == "" || req.CertVersion == "" {
		apierr.Respond(c, models.ErrInvalidRequest)
		return
	}
	ca, err := h.certs.CreateCA(c.Request.Context(), req.Name, req.CertVersion)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, ca)
}

type importCARequest struct {
	Name        string             `json:"name"`
	PEMCert     string             `json:"pem_cert"`
	PEMKey      string             `json:"pem_key"`
	CertVersion models.CertVersion `json:"cert_version"`
}

// Import handles POST /v1/ca/import. A CA imported without a key (a
// peer control plane's public CA, kept for verification continuity)
// is stored via ImportPublicCA; one with a key can sign.
func (h *CAHandler) Import(c *gin.Context) {
	var req importCARequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == "" || req.PEMCert == "" || req.CertVersion == "" {
		apierr.Respond(c, models.ErrInvalidRequest)
		return
	}

	var ca *models.CA
	var err error
	if req.PEMKey != "" {
		ca, err = h.certs.ImportExistingCA(c.Request.Context(), req.Name, req.PEMCert, req.PEMKey, req.CertVersion)
	} else {
		ca, err = h.certs.ImportPublicCA(c.Request.Context(), req.Name, req.PEMCert, req.CertVersion)
	}
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, ca)
}

// SetSigning handles POST /v1/ca/:id/set-signing.
func (h *CAHandler) SetSigning(c *gin.Context) {
	if err := h.cas.SetSigning(c.Request.Context(), c.Param("id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	ca, err := h.cas.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, ca)
}

// Delete handles DELETE /v1/ca/:id. Rejects an active CA via
// models.ErrCAStillActive, surfaced by the repository layer.
func (h *CAHandler) Delete(c *gin.Context) {
	if err := h.cas.Delete(c.Request.Context(), c.Param("id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
