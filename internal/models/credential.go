package models

import "time"

// Credential is a row of the credentials workbook, keyed by StudentID.
type Credential struct {
	StudentID string
	Name      string
	Username  string
	Password  string
	Email     string
	CreatedAt time.Time
}
