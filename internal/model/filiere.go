package model

import "github.com/google/uuid"

// Filiere is an academic programme that scopes which exams a student may take.
type Filiere struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
}
