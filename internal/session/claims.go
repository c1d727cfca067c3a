package session

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"inquiry_desk/platform/apperr"
)

const errInvalidToken = "invalid token"

// Claims is what the desk needs from the marketplace access token.
type Claims struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ParseClaims reads the access token. With a secret the signature is checked;
// without one the marketplace stays the authority and only the payload is read.
// Expired tokens are rejected either way.
func ParseClaims(rawToken, secret string, now time.Time) (Claims, bool, error) {
	rawToken = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rawToken), "Bearer "))
	if rawToken == "" {
		return Claims{}, false, apperr.Unauthorized("missing token")
	}

	mc := jwt.MapClaims{}
	verified := secret != ""
	if verified {
		parsed, err := jwt.ParseWithClaims(rawToken, mc, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return []byte(secret), nil
		}, jwt.WithTimeFunc(func() time.Time { return now }))
		if err != nil || !parsed.Valid {
			return Claims{}, true, apperr.Wrap(apperr.KindUnauthorized, errInvalidToken, err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(rawToken, mc); err != nil {
			return Claims{}, false, apperr.Wrap(apperr.KindUnauthorized, errInvalidToken, err)
		}
	}

	if tokenType, ok := mc["token_type"].(string); ok && tokenType != "access" {
		return Claims{}, verified, apperr.Unauthorized(errInvalidToken)
	}

	var claims Claims
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
		if !now.Before(exp.Time) {
			return Claims{}, verified, apperr.Unauthorized("token expired")
		}
	}

	id, ok := userID(mc)
	if !ok {
		return Claims{}, verified, apperr.Unauthorized(errInvalidToken)
	}
	claims.UserID = id
	claims.Email, _ = mc["email"].(string)
	return claims, verified, nil
}

// userID accepts user_id or sub, as a JSON number or a numeric string.
func userID(mc jwt.MapClaims) (int64, bool) {
	for _, key := range []string{"user_id", "sub"} {
		switch v := mc[key].(type) {
		case float64:
			if v > 0 && v == float64(int64(v)) {
				return int64(v), true
			}
		case string:
			if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && id > 0 {
				return id, true
			}
		}
	}
	return 0, false
}
