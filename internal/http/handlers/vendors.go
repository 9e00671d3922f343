package handlers

import (
	"net/http"
	"strings"

	"busbooking/internal/domain"
	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

const documentFormField = "document"

func (h *Handlers) VendorProfile(c *gin.Context) {
	v, err := h.Vendors.Profile(c.Request.Context(), rc(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// UploadVendorDocument takes a multipart "document" file.
func (h *Handlers) UploadVendorDocument(c *gin.Context) {
	fh, err := c.FormFile(documentFormField)
	if err != nil {
		respondError(c, http.StatusBadRequest, domain.CodeValidation, "multipart field \"document\" is required", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, domain.CodeValidation, "cannot read uploaded file", nil)
		return
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if ct, _, ok := strings.Cut(contentType, ";"); ok {
		contentType = ct
	}
	v, err := h.Vendors.UploadDocument(c.Request.Context(), rc(c), f, fh.Size, contentType)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// ListVendors supports ?status=Pending|Approved|Rejected&page=&pageSize=.
func (h *Handlers) ListVendors(c *gin.Context) {
	list, err := h.Vendors.List(c.Request.Context(), rc(c), strings.TrimSpace(c.Query("status")), pagination(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) ApproveVendor(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	v, err := h.Vendors.Approve(c.Request.Context(), rc(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handlers) RejectVendor(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.RejectVendorInput
	if !BindJSONOrError(c, &in) {
		return
	}
	v, err := h.Vendors.Reject(c.Request.Context(), rc(c), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handlers) VendorDocument(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	url, err := h.Vendors.DocumentURL(c.Request.Context(), rc(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
