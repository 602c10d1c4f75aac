package jwt

import (
	"errors"
	"fmt"
	"time"

	"boardcafe/backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is what the session token carries about its holder.
type Claims struct {
	UserID uint
	Role   string
}

// GenerateToken creates a new JWT for a given user ID and role.
func GenerateToken(userID uint, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  now.Add(config.AppConfig.TokenTTL).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ParseToken verifies the signature and expiry of a token and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	// JSON numbers decode as float64
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return nil, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = "user"
	}
	return &Claims{UserID: uint(sub), Role: role}, nil
}
