package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignToken issues the session JWT stored in the Bearer cookie. The tier
// claim is a derived view of users.tier as of login time.
func SignToken(userID int, username, email, role, tier string) (string, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return "", fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	hours := 24
	if v := os.Getenv("JWT_EXP_HOURS"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err == nil && parsed > 0 {
			hours = parsed
		}
	}

	claims := jwt.MapClaims{
		"uid":   userID,
		"user":  username,
		"email": email,
		"role":  role,
		"tier":  tier,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Duration(hours) * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", ErrorHandler(err, "could not sign login token")
	}
	return signed, nil
}
