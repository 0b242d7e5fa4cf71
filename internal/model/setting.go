package model

import "time"

// Setting keys for the event configuration.
const (
	SettingFirstDay     = "first_day"     // ISO date, e.g. "2026-07-20"
	SettingDurationDays = "duration_days" // integer >= 0
)

// SettingDateLayout is the wire format of date-valued settings.
const SettingDateLayout = "2006-01-02"

// Setting is one row of the singleton key-value event configuration.
type Setting struct {
	Key       string    `gorm:"type:varchar(64);primary_key" json:"key"`
	Value     string    `gorm:"type:varchar(255);not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
