// Package auth persists the session token in the local client-state store
// and derives the signed-in identity from it. A missing, malformed, or
// expired token always means "logged out" and never an error the caller has
// to handle.
package auth

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aubrey-sherman/baby-bootcamp/internal/db"
)

// tokenKey is the fixed client-state key holding the session token.
const tokenKey = "session_token"

// Session identifies the signed-in user.
type Session struct {
	Username string
	Token    string
}

// SetToken stores the session token.
func SetToken(sqldb *sql.DB, token string) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}
	return db.SetState(sqldb, tokenKey, token)
}

// Clear logs out by removing the stored token.
func Clear(sqldb *sql.DB) error {
	return db.DeleteState(sqldb, tokenKey)
}

// Current returns the active session, or nil when logged out. The token's
// signature is not verified here; the client has no signing key and the
// backend authenticates every request. Decoding only extracts the username
// claim and rejects expired tokens.
func Current(sqldb *sql.DB) (*Session, error) {
	token, ok, err := db.GetState(sqldb, tokenKey)
	if err != nil {
		return nil, err
	}
	if !ok || token == "" {
		return nil, nil
	}

	username, expired := decodeToken(token)
	if username == "" || expired {
		return nil, nil
	}
	return &Session{Username: username, Token: token}, nil
}

func decodeToken(token string) (username string, expired bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return "", false
	}
	name, _ := claims["username"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		if exp.Before(time.Now()) {
			return name, true
		}
	}
	return name, false
}
