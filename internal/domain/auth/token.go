package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID   string `json:"uid"`
	TenantID string `json:"tid"`
	RoleID   string `json:"rid"`
	RoleName string `json:"role"`
	jwt.RegisteredClaims
}

// Session is the explicit identity handed to the form engine. The raw token is
// forwarded to the HR API; nothing reads identity from ambient storage.
type Session struct {
	UserID   string
	TenantID string
	RoleName string
	Token    string
}

func (s Session) Can(permission string) bool {
	return HasPermission(s.RoleName, permission)
}

func GenerateToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SessionFromToken validates tokenString and binds it to the resulting session.
func SessionFromToken(secret, tokenString string) (Session, error) {
	claims, err := ParseToken(secret, tokenString)
	if err != nil {
		return Session{}, err
	}
	return Session{
		UserID:   claims.UserID,
		TenantID: claims.TenantID,
		RoleName: claims.RoleName,
		Token:    tokenString,
	}, nil
}
