package models

import "time"

// Cart is a buyer's in-progress collection of product lines. Exactly one cart
// exists per buyer; its items are deleted only as part of a committed order
// creation.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is one product line in a cart.
type CartItem struct {
	ID          string `json:"id"`
	CartID      string `json:"cart_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity"`
}
