package stub

import (
	"errors"
	"net/mail"
	"strconv"

	"giafashion/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Register handles POST /api/v1/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return fail(c, fiber.StatusBadRequest, "Email and password are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid email address")
	}
	if len(req.Password) < 8 {
		return fail(c, fiber.StatusBadRequest, "Password must be at least 8 characters")
	}

	var existing models.User
	err := s.db.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return fail(c, fiber.StatusConflict, "User already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	user := models.User{
		Email:    req.Email,
		Username: req.Username,
		Password: string(hashed),
		Role:     models.RoleUser,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return s.respondWithTokens(c, fiber.StatusCreated, &user)
}

// Login handles POST /api/v1/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	var user models.User
	err := s.db.Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); cmpErr != nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	return s.respondWithTokens(c, fiber.StatusOK, &user)
}

// RefreshToken handles POST /api/v1/auth/refresh
func (s *Server) RefreshToken(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return fail(c, fiber.StatusBadRequest, "Refresh token is required")
	}

	claims, err := s.parseToken(req.RefreshToken)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid or expired refresh token")
	}
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		return fail(c, fiber.StatusUnauthorized, "Not a refresh token")
	}

	userID, err := subjectID(claims)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid refresh token subject")
	}

	var user models.User
	if dbErr := s.db.First(&user, userID).Error; dbErr != nil {
		return fail(c, fiber.StatusUnauthorized, "Unknown user")
	}

	accessToken, err := s.generateAccessToken(&user)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return respond(c, fiber.StatusOK, fiber.Map{"accessToken": accessToken})
}

// respondWithTokens issues the access/refresh pair for an authenticated user.
func (s *Server) respondWithTokens(c *fiber.Ctx, status int, user *models.User) error {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}
	refreshToken, err := s.generateRefreshToken(user)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return respond(c, status, fiber.Map{
		"user":         user,
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}

func subjectID(claims jwt.MapClaims) (uint, error) {
	subStr, ok := claims["sub"].(string)
	if !ok {
		return 0, errors.New("missing subject")
	}
	id, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
