package domain

import (
	"testing"

	"busbooking/internal/domain/models"
)

func TestPaginationNormalize(t *testing.T) {
	p := Pagination{Page: 0, PageSize: 500}.Normalize()
	if p.Page != 1 || p.PageSize != 100 {
		t.Fatalf("unexpected pagination %+v", p)
	}
	if (Pagination{Page: 3, PageSize: 20}).Offset() != 40 {
		t.Fatal("unexpected offset")
	}
}

func TestRequestContextRoles(t *testing.T) {
	rc := RequestContext{Role: RoleVendor, VendorID: 7}
	if id, err := rc.RequireVendor(); err != nil || id != 7 {
		t.Fatalf("expected vendor 7, got %d %v", id, err)
	}
	if _, err := rc.RequireCustomer(); !IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := rc.RequireAdmin(); !IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestBookingStatusTransitions(t *testing.T) {
	if !models.BookingPending.CanTransitionTo(models.BookingExpired) {
		t.Fatal("pending should expire")
	}
	if models.BookingConfirmed.CanTransitionTo(models.BookingPending) {
		t.Fatal("confirmed must not go back to pending")
	}
	if models.BookingCancelled.CanTransitionTo(models.BookingConfirmed) {
		t.Fatal("cancelled is terminal")
	}
}

func TestInternalKeepsDomainErrors(t *testing.T) {
	nf := NotFoundError{Resource: "booking"}
	if err := Internal("x", nf); !IsNotFound(err) {
		t.Fatalf("expected not found to pass through, got %v", err)
	}
	if CodeOf(ConflictError{}) != CodeConflict {
		t.Fatal("unexpected code")
	}
}
