/*
auth.go - Registration, login and token verification

Passwords are hashed with bcrypt; sessions are stateless HMAC-signed JWTs
with a 24h expiry. Protected routes read the token from the Authorization
header ("Bearer <token>") and fall back to the bare "token" header the
original frontend sends.
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/faycal-henaoui/wood-workshop/inventory"
)

const tokenTTL = 24 * time.Hour

type contextKey string

const userIDKey contextKey = "userID"

type authClaims struct {
	UserID string `json:"user"`
	jwt.RegisteredClaims
}

func (h *Handler) signToken(userID string) (string, error) {
	claims := authClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(h.Now()),
			ExpiresAt: jwt.NewNumericDate(h.Now().Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.JWTSecret)
}

// Register creates an admin account and returns a session token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusUnauthorized, "Missing Credentials", nil)
		return
	}

	existing, err := h.Store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusUnauthorized, "User already exists", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}

	user, err := h.Store.CreateUser(ctx, inventory.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         "admin",
		CreatedAt:    h.Now().UTC(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user", err)
		return
	}

	token, err := h.signToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to sign token", err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{
		Token: token,
		User:  AuthUser{Username: user.Username, Role: user.Role},
	})
}

// Login authenticates a user and returns a session token. The same message
// is returned for unknown users and wrong passwords.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusUnauthorized, "Missing Credentials", nil)
		return
	}

	user, err := h.Store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Username or password is incorrect", nil)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Username or password is incorrect", nil)
		return
	}

	token, err := h.signToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to sign token", err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{
		Token: token,
		User:  AuthUser{Username: user.Username, Role: user.Role},
	})
}

// Verify reports whether the presented token is still valid. Mounted behind
// Authorize, so reaching it means yes.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, true)
}

// Authorize validates the session token and stores the user ID in the
// request context.
func (h *Handler) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, http.StatusForbidden, "Not Authorized", nil)
			return
		}

		claims := &authClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return h.JWTSecret, nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusForbidden, "Not Authorized", nil)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("token")
}
