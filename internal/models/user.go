package models

import "time"

// Role distinguishes consumers from producers and administrators.
type Role string

const (
	RoleConsumer Role = "consumer"
	RoleProducer Role = "producer"
	RoleAdmin    Role = "admin"
)

// User is the identity record the API trusts from the upstream gateway.
// Authentication itself happens outside this service.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
