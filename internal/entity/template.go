package entity

import (
	"context"
	"time"
)

// EmailTemplate is a named subject/body pair with {{key}} placeholders.
type EmailTemplate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type TemplateRepositoryInterface interface {
	FindAll(ctx context.Context) ([]EmailTemplate, error)
	FindByID(ctx context.Context, id string) (*EmailTemplate, error)
}
