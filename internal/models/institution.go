package models

import "time"

// InstitutionProfile carries the workday parameters for one college,
// expressed as HH:MM wall-clock strings. The allocation core derives a
// single decimal hours-per-full-day figure from them.
type InstitutionProfile struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	LunchStart string    `db:"lunch_start" json:"lunch_start"`
	LunchEnd   string    `db:"lunch_end" json:"lunch_end"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
