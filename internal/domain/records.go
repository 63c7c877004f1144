package domain

import "time"

// Medication is a tracked medication entry.
type Medication struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Dose      string `json:"dose"`
	Frequency string `json:"frequency"`
	Notes     string `json:"notes,omitempty"`
}

// Appointment is an upcoming appointment.
type Appointment struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	Time      string    `json:"time"`
	Location  string    `json:"location"`
	Phone     string    `json:"phone,omitempty"`
	BringList []string  `json:"bringList,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// Contact is a caseworker or service contact.
type Contact struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Phone        string `json:"phone"`
	Organization string `json:"organization,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// CaseNumber is a benefits application reference number.
type CaseNumber struct {
	ID     int64  `json:"id"`
	Type   string `json:"type"`
	Number string `json:"number"`
	Notes  string `json:"notes,omitempty"`
}
