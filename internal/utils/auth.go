package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/xelth-com/eckposgo/internal/models"
)

// AccessTokenTTL is the lifetime of a staff login token
const AccessTokenTTL = 12 * time.Hour

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateToken signs an access token for a staff member. A non-positive ttl
// falls back to AccessTokenTTL.
func GenerateToken(user *models.StaffUser, secret string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = AccessTokenTTL
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and validates a token
func ValidateToken(tokenString string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// Identity is the staff member a validated token speaks for
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IdentityFromClaims extracts the staff fields written by GenerateToken
func IdentityFromClaims(claims jwt.MapClaims) (Identity, error) {
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if id == "" || role == "" {
		return Identity{}, errors.New("token carries no staff identity")
	}
	return Identity{ID: id, Username: username, Role: role}, nil
}
