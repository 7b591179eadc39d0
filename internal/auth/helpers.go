package auth

import (
	"strings"
	"time"

	"UniPath/internal/apperr"
	"UniPath/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// ContextKey is where the JWT middleware stores the caller's claims.
const ContextKey = "user"

type JWTClaims struct {
	UserID string `json:"uid"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"` // Role is needed for RBAC in protected endpoints
	jwt.RegisteredClaims
}

// ObjectID returns the caller's user id.
func (c *JWTClaims) ObjectID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.UserID)
}

func (c *JWTClaims) IsStaff() bool {
	return c.Role == RoleStaff || c.Role == RoleAdmin
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewTokenIssuer(cfg *config.Config) *TokenIssuer {
	return &TokenIssuer{key: []byte(cfg.Auth.JWTKey), ttl: cfg.Auth.TokenTTL, now: time.Now}
}

func (t *TokenIssuer) GenerateJWT(user *User) (string, error) {
	now := t.now()
	claims := &JWTClaims{
		UserID: user.ID.Hex(),
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.key)
}

func (t *TokenIssuer) ValidateJWT(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.key, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, errors.Wrap(err, "parsing token")
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if _, err := claims.ObjectID(); err != nil {
		return nil, errors.Wrap(err, "token subject")
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// CurrentUser returns the authenticated caller stored by the JWT middleware.
func CurrentUser(c echo.Context) (*JWTClaims, primitive.ObjectID, error) {
	claims, ok := c.Get(ContextKey).(*JWTClaims)
	if !ok || claims == nil {
		return nil, primitive.NilObjectID, apperr.ErrUnauthorized
	}
	id, err := claims.ObjectID()
	if err != nil {
		return nil, primitive.NilObjectID, apperr.ErrUnauthorized
	}
	return claims, id, nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hashed), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
