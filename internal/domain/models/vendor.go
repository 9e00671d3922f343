package models

import "time"

type VendorStatus string

const (
	VendorPending   VendorStatus = "Pending"
	VendorApproved  VendorStatus = "Approved"
	VendorRejected  VendorStatus = "Rejected"
	VendorSuspended VendorStatus = "Suspended"
)

type Vendor struct {
	ID              int64        `json:"id"`
	UserID          int64        `json:"userId"`
	CompanyName     string       `json:"companyName"`
	ContactEmail    string       `json:"contactEmail"`
	Phone           string       `json:"phone"`
	Status          VendorStatus `json:"status"`
	DocumentKey     string       `json:"documentKey,omitempty"`
	RejectionReason string       `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

type BusStatus string

const (
	BusActive      BusStatus = "Active"
	BusInactive    BusStatus = "Inactive"
	BusMaintenance BusStatus = "Maintenance"
)

type Bus struct {
	ID                   int64     `json:"id"`
	VendorID             int64     `json:"vendorId"`
	BusNumber            string    `json:"busNumber"`
	BusType              string    `json:"busType"`
	TotalSeats           int       `json:"totalSeats"`
	SeatLayoutTemplateID int64     `json:"seatLayoutTemplateId"`
	Status               BusStatus `json:"status"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}
