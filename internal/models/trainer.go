package models

import "time"

// Trainer is a directory entry for a bookable human trainer.
type Trainer struct {
	ID          string    `db:"id" json:"id"`
	FullName    string    `db:"full_name" json:"full_name"`
	Email       string    `db:"email" json:"email"`
	PaymentType string    `db:"payment_type" json:"payment_type"`
	HourlyRate  float64   `db:"hourly_rate" json:"hourly_rate"`
	Domain      string    `db:"domain" json:"domain"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// TrainerFilter describes query params for listing trainers.
type TrainerFilter struct {
	Domain   string
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
