package domain

import "strings"

// Roles carried in the access token.
const (
	RoleCustomer = "Customer"
	RoleVendor   = "Vendor"
	RoleAdmin    = "Admin"
)

// Pagination carries paging params and totals.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total,omitempty"`
}

// Normalize clamps page to >=1 and page size to [1,100] (default 20).
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// RequestContext carries authenticated user info into service calls.
type RequestContext struct {
	RequestID  string `json:"requestId"`
	UserID     int64  `json:"userId"`
	Role       string `json:"role"`
	VendorID   int64  `json:"vendorId,omitempty"`
	CustomerID int64  `json:"customerId,omitempty"`
}

func (rc RequestContext) HasRole(role string) bool {
	return strings.EqualFold(rc.Role, role)
}

// RequireVendor returns the vendor id of the caller or a Forbidden error.
func (rc RequestContext) RequireVendor() (int64, error) {
	if !rc.HasRole(RoleVendor) || rc.VendorID <= 0 {
		return 0, ForbiddenError{Msg: "vendor account required"}
	}
	return rc.VendorID, nil
}

// RequireCustomer returns the customer id of the caller or a Forbidden error.
func (rc RequestContext) RequireCustomer() (int64, error) {
	if !rc.HasRole(RoleCustomer) || rc.CustomerID <= 0 {
		return 0, ForbiddenError{Msg: "customer account required"}
	}
	return rc.CustomerID, nil
}

func (rc RequestContext) RequireAdmin() error {
	if !rc.HasRole(RoleAdmin) {
		return ForbiddenError{Msg: "admin role required"}
	}
	return nil
}
