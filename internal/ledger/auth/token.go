// Package auth issues and validates employee identity tokens. Login is
// by name: there is no employee table or password store, so a token just
// binds a request to the staff member who claimed it.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func GenerateToken(employee string, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub": employee,
		"exp": time.Now().Add(time.Hour * 24).Unix(),
		"iat": time.Now().Unix(),
		"iss": "arledger",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// validateToken parses the token and returns the employee name from the
// subject claim.
func validateToken(tokenString string, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	employee, err := claims.GetSubject()
	if err != nil || employee == "" {
		return "", fmt.Errorf("token missing subject")
	}
	return employee, nil
}
