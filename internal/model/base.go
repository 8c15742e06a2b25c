package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for mutable records
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IDResponse is the body returned by most create endpoints.
type IDResponse struct {
	ID      uuid.UUID `json:"id"`
	Message string    `json:"message,omitempty"`
}

// MessageResponse carries a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
