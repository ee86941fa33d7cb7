// Package utils provides token and password helpers shared by handlers,
// middleware and services.
package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed JWT together with its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// Identity is the authenticated principal carried in an access token.
// TeacherID is zero for accounts without a linked teacher.
type Identity struct {
	UserID    int64
	Role      string
	TeacherID int64
}

// NewAccessToken builds and signs an HS256 JWT with the claims sub, role,
// tid (teacher id, omitted when zero), exp and iat.
func NewAccessToken(secret string, id Identity, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  fmt.Sprint(id.UserID),
		"role": id.Role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	if id.TeacherID != 0 {
		claims["tid"] = id.TeacherID
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken validates signature and expiry and extracts the identity.
func ParseAccessToken(secret, raw string) (Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Identity{}, errors.New("invalid claims")
	}

	var id Identity
	sub, err := claims.GetSubject()
	if err != nil {
		return Identity{}, err
	}
	if _, err := fmt.Sscan(sub, &id.UserID); err != nil || id.UserID <= 0 {
		return Identity{}, errors.New("invalid subject")
	}
	id.Role, _ = claims["role"].(string)
	if id.Role == "" {
		return Identity{}, errors.New("missing role")
	}
	if tid, ok := claims["tid"].(float64); ok {
		id.TeacherID = int64(tid)
	}
	return id, nil
}
