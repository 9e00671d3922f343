package models

import "time"

const (
	SeatTypeSeater  = "Seater"
	SeatTypeSleeper = "Sleeper"
)

type SeatLayoutTemplate struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	TotalSeats  int                `json:"totalSeats"`
	Rows        int                `json:"rows"`
	Columns     int                `json:"columns"`
	Description string             `json:"description,omitempty"`
	Seats       []SeatLayoutDetail `json:"seats,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

type SeatLayoutDetail struct {
	ID           int64  `json:"id,omitempty"`
	TemplateID   int64  `json:"templateId,omitempty"`
	SeatNumber   string `json:"seatNumber" binding:"required"`
	SeatType     string `json:"seatType" binding:"required,oneof=Seater Sleeper"`
	SeatPosition string `json:"seatPosition" binding:"required,oneof=Window Aisle Middle"`
	RowNo        int    `json:"rowNo" binding:"min=1"`
	ColNo        int    `json:"colNo" binding:"min=1"`
	Deck         string `json:"deck" binding:"omitempty,oneof=Lower Upper"`
}
