package domain

import "time"

// Product price is integer cents. Stock is only decremented by order
// materialization; restocking goes through the admin stock endpoints.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	ImageURL    string    `json:"image_url"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	Listed      bool      `json:"listed"`
	CreatedAt   time.Time `json:"created_at"`
}
