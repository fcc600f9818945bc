// Package subscribe submits waitlist/newsletter signups to the backend.
package subscribe

import (
	"context"
	"net/http"
	"net/mail"
	"strings"

	"giafashion/internal/api"
	"giafashion/internal/models"
)

// Service posts signups to the backend, which relays them to the marketing
// list with consent tracking.
type Service struct {
	client *api.Client
}

// NewService creates the signup service.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// Subscribe validates the signup locally and submits it. A duplicate signup
// is surfaced as a validation error carrying the server's message.
func (s *Service) Subscribe(ctx context.Context, sub models.Subscriber) error {
	sub.Email = strings.TrimSpace(sub.Email)
	sub.FirstName = strings.TrimSpace(sub.FirstName)
	sub.LastName = strings.TrimSpace(sub.LastName)

	if sub.Email == "" {
		return models.NewValidationError(0, "email is required")
	}
	if _, err := mail.ParseAddress(sub.Email); err != nil {
		return models.NewValidationError(0, "invalid email address")
	}
	if sub.FirstName == "" {
		return models.NewValidationError(0, "first name is required")
	}

	return s.client.Do(ctx, http.MethodPost, "/subscribe", sub, nil)
}
