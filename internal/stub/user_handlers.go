package stub

import (
	"errors"
	"net/mail"
	"strings"

	"giafashion/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ListUsers handles GET /api/v1/users (admin): the full subscriber list.
func (s *Server) ListUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := s.db.Order("id ASC").Find(&users).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return respond(c, fiber.StatusOK, fiber.Map{"users": users})
}

// DeleteUser handles DELETE /api/v1/users/:id (admin).
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	if id == currentUserID(c) {
		return fail(c, fiber.StatusBadRequest, "Cannot delete your own account")
	}

	var user models.User
	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	if err := s.db.Delete(&models.User{}, id).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return respond(c, fiber.StatusOK, fiber.Map{})
}

// Subscribe handles POST /api/v1/subscribe: the public waitlist signup.
func (s *Server) Subscribe(c *fiber.Ctx) error {
	var req models.Subscriber
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return fail(c, fiber.StatusBadRequest, "Email is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid email address")
	}

	var existing models.User
	err := s.db.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return fail(c, fiber.StatusConflict, "This email is already subscribed")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	user := models.User{
		Email:    req.Email,
		Username: strings.TrimSpace(req.FirstName + " " + req.LastName),
		Role:     models.RoleUser,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return respond(c, fiber.StatusCreated, fiber.Map{})
}

// GetContent handles GET /api/v1/content/:section: CMS fragments for the
// marketing pages.
func (s *Server) GetContent(c *fiber.Ctx) error {
	section := c.Params("section")

	var content models.ContentSection
	err := s.db.Where("section = ?", section).First(&content).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, fiber.StatusNotFound, "Content section not found")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return respond(c, fiber.StatusOK, content)
}
