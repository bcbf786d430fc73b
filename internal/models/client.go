package models

import "time"

// Client represents a wedding client (the couple) served by the vendor.
// Orders reference a client but do not own it.
type Client struct {
	ID          int64      `json:"id"`
	BrideName   string     `json:"bride_name"`
	GroomName   string     `json:"groom_name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	CeremonyAt  *time.Time `json:"ceremony_at"`  // akad / holy matrimony
	ReceptionAt *time.Time `json:"reception_at"` // resepsi
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
