package domain

import "time"

// Address belongs to exactly one user; orders snapshot its fields at creation
// time rather than referencing it.
type Address struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	RecipientName  string    `json:"recipient_name"`
	RecipientPhone string    `json:"recipient_phone"`
	AddressText    string    `json:"address_text"`
	IsDefault      bool      `json:"is_default"`
	CreatedAt      time.Time `json:"created_at"`
}
