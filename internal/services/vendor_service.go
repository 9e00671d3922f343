package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/utils"
)

const (
	maxDocumentBytes = 10 << 20
	documentURLTTL   = 15 * time.Minute
)

var allowedDocumentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

type VendorService struct {
	Vendors   VendorStore
	Documents DocumentStore
	Now       func() time.Time
}

type RejectVendorInput struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

func (s VendorService) List(ctx context.Context, rc domain.RequestContext, status string, page domain.Pagination) ([]models.Vendor, error) {
	if err := rc.RequireAdmin(); err != nil {
		return nil, err
	}
	st := models.VendorStatus(strings.TrimSpace(status))
	switch st {
	case "", models.VendorPending, models.VendorApproved, models.VendorRejected, models.VendorSuspended:
	default:
		return nil, domain.ValidationError{Field: "status", Msg: "unknown vendor status " + status}
	}
	return s.Vendors.List(ctx, st, page)
}

// Profile returns the calling vendor's own record.
func (s VendorService) Profile(ctx context.Context, rc domain.RequestContext) (models.Vendor, error) {
	vendorID, err := rc.RequireVendor()
	if err != nil {
		return models.Vendor{}, err
	}
	return s.Vendors.GetByID(ctx, vendorID)
}

func (s VendorService) setStatus(ctx context.Context, rc domain.RequestContext, id int64, status models.VendorStatus, reason string) (models.Vendor, error) {
	if err := rc.RequireAdmin(); err != nil {
		return models.Vendor{}, err
	}
	v, err := s.Vendors.GetByID(ctx, id)
	if err != nil {
		return models.Vendor{}, err
	}
	if v.Status == status {
		return v, nil
	}
	if err := s.Vendors.UpdateStatus(ctx, id, status, reason); err != nil {
		return models.Vendor{}, domain.Internal("failed to update vendor", err)
	}
	v.Status, v.RejectionReason = status, reason
	utils.LogEvent(rc.RequestID, "vendor", strings.ToLower(string(status)), fmt.Sprintf("vendor_id=%d admin_user_id=%d", id, rc.UserID))
	return v, nil
}

func (s VendorService) Approve(ctx context.Context, rc domain.RequestContext, id int64) (models.Vendor, error) {
	return s.setStatus(ctx, rc, id, models.VendorApproved, "")
}

func (s VendorService) Reject(ctx context.Context, rc domain.RequestContext, id int64, in RejectVendorInput) (models.Vendor, error) {
	reason := utils.NormalizeSpace(in.Reason)
	if reason == "" {
		return models.Vendor{}, domain.ValidationError{Field: "reason", Msg: "required"}
	}
	return s.setStatus(ctx, rc, id, models.VendorRejected, reason)
}

// UploadDocument stores the vendor's verification document and records its key.
func (s VendorService) UploadDocument(ctx context.Context, rc domain.RequestContext, body io.Reader, size int64, contentType string) (models.Vendor, error) {
	vendorID, err := rc.RequireVendor()
	if err != nil {
		return models.Vendor{}, err
	}
	if s.Documents == nil {
		return models.Vendor{}, domain.Internal("document storage not configured", fmt.Errorf("no document store"))
	}
	ext, ok := allowedDocumentTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return models.Vendor{}, domain.ValidationError{Field: "document", Msg: "only PDF, JPEG or PNG files are accepted"}
	}
	if size <= 0 || size > maxDocumentBytes {
		return models.Vendor{}, domain.ValidationError{Field: "document", Msg: "file must be between 1 byte and 10 MB"}
	}

	key := path.Join("vendors", fmt.Sprint(vendorID), fmt.Sprintf("%d%s", clock(s.Now).now().Unix(), ext))
	if err := s.Documents.Put(ctx, key, body, size, contentType); err != nil {
		return models.Vendor{}, domain.Internal("failed to store document", err)
	}
	if err := s.Vendors.SetDocumentKey(ctx, vendorID, key); err != nil {
		return models.Vendor{}, domain.Internal("failed to record document", err)
	}
	utils.LogEvent(rc.RequestID, "vendor", "upload_document", fmt.Sprintf("vendor_id=%d key=%s", vendorID, key))
	return s.Vendors.GetByID(ctx, vendorID)
}

// DocumentURL returns a short-lived download link for an admin reviewing the vendor.
func (s VendorService) DocumentURL(ctx context.Context, rc domain.RequestContext, id int64) (string, error) {
	if err := rc.RequireAdmin(); err != nil {
		return "", err
	}
	if s.Documents == nil {
		return "", domain.Internal("document storage not configured", fmt.Errorf("no document store"))
	}
	v, err := s.Vendors.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if v.DocumentKey == "" {
		return "", domain.NotFoundError{Resource: "vendor document"}
	}
	url, err := s.Documents.PresignGet(ctx, v.DocumentKey, documentURLTTL)
	if err != nil {
		return "", domain.Internal("failed to sign document url", err)
	}
	return url, nil
}
