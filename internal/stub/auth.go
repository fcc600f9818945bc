package stub

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"giafashion/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// generateAccessToken mints a short-lived HS256 access token.
func (s *Server) generateAccessToken(user *models.User) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	ttl := time.Duration(s.config.AccessTokenTTLMin) * time.Minute
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role,
		"iss":      "gia-api",
		"aud":      "gia-client",
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateRefreshToken mints a long-lived token usable only at the refresh
// endpoint (typ claim).
func (s *Server) generateRefreshToken(user *models.User) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	ttl := time.Duration(s.config.RefreshTokenTTLHrs) * time.Hour
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(user.ID), 10),
		"typ": "refresh",
		"iss": "gia-api",
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
		"jti": generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID to prevent replay
func generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}

// parseToken validates signature and expiry and returns the claims.
func (s *Server) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// bearerToken extracts the credential from the Authorization header.
func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// AuthRequired enforces a valid access token and stores userID and role in
// the request locals.
func (s *Server) AuthRequired(c *fiber.Ctx) error {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return fail(c, fiber.StatusUnauthorized, "Authorization header required")
	}

	claims, err := s.parseToken(tokenString)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid or expired token")
	}
	if typ, _ := claims["typ"].(string); typ == "refresh" {
		return fail(c, fiber.StatusUnauthorized, "Refresh token cannot be used for API calls")
	}

	subStr, ok := claims["sub"].(string)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "Invalid token structure - missing subject")
	}
	userID, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid user ID in token")
	}

	role, _ := claims["role"].(string)
	c.Locals("userID", uint(userID))
	c.Locals("role", role)
	return c.Next()
}

// OptionalAuth parses a token when one is present; anonymous requests pass
// through with no viewer identity.
func (s *Server) OptionalAuth(c *fiber.Ctx) error {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return c.Next()
	}

	// A presented-but-expired token gets a 401 so the client can run its
	// refresh protocol; requests with no token at all stay anonymous.
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid or expired token")
	}
	if typ, _ := claims["typ"].(string); typ == "refresh" {
		return fail(c, fiber.StatusUnauthorized, "Refresh token cannot be used for API calls")
	}

	if subStr, ok := claims["sub"].(string); ok {
		if userID, parseErr := strconv.ParseUint(subStr, 10, 32); parseErr == nil {
			c.Locals("userID", uint(userID))
			role, _ := claims["role"].(string)
			c.Locals("role", role)
		}
	}
	return c.Next()
}

// AdminRequired rejects non-admin callers. Must run after AuthRequired.
func (s *Server) AdminRequired(c *fiber.Ctx) error {
	if currentRole(c) != models.RoleAdmin {
		return fail(c, fiber.StatusForbidden, "Admin access required")
	}
	return c.Next()
}
