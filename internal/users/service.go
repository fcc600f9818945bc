// Package users provides the admin-only subscriber management operations:
// listing, deletion and spreadsheet export of the waitlist.
package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"giafashion/internal/api"
	"giafashion/internal/models"
	"giafashion/internal/observability"

	"github.com/xuri/excelize/v2"
)

// ErrConfirmationDeclined is returned when the confirmation step for a user
// deletion was answered with no. No call is issued.
var ErrConfirmationDeclined = errors.New("confirmation declined")

// Service manages the admin subscriber list.
type Service struct {
	client *api.Client
	logger *observability.Logger

	// Confirm guards deletions; defaults to declining.
	Confirm func(prompt string) bool

	mu    sync.Mutex
	users []models.User
}

// NewService creates the subscriber management service.
func NewService(client *api.Client, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		client:  client,
		logger:  logger,
		Confirm: func(string) bool { return false },
	}
}

// List fetches the subscriber list (admin only; the server rejects others)
// and caches it for export.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	var res struct {
		Users []models.User `json:"users"`
	}
	if err := s.client.Do(ctx, http.MethodGet, "/users", nil, &res); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.users = res.Users
	s.mu.Unlock()
	return res.Users, nil
}

// Delete removes a subscriber after confirmation. There is no undo. On
// success the user is removed from the cached list.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if !s.Confirm(fmt.Sprintf("Delete user %d? This action cannot be undone.", id)) {
		return ErrConfirmationDeclined
	}

	if err := s.client.Do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, nil); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			break
		}
	}
	return nil
}

// Cached returns the last fetched subscriber list.
func (s *Service) Cached() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, len(s.users))
	copy(out, s.users)
	return out
}

// ExportXLSX writes the given subscribers to an .xlsx workbook with
// No/Username/Email columns and returns the file name,
// GIA_Users_<YYYY-MM-DD>.xlsx when path is empty.
func (s *Service) ExportXLSX(users []models.User, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("GIA_Users_%s.xlsx", time.Now().Format("2006-01-02"))
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Users"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", fmt.Errorf("export users: %w", err)
	}

	headers := []string{"No", "Username", "Email"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return "", fmt.Errorf("export users: %w", err)
		}
	}

	for row, u := range users {
		username := u.Username
		if username == "" {
			username = "N/A"
		}
		email := u.Email
		if email == "" {
			email = "N/A"
		}
		values := []any{row + 1, username, email}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return "", fmt.Errorf("export users: %w", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("export users: %w", err)
	}
	s.logger.Info("exported users", "file", path, "count", len(users))
	return path, nil
}
