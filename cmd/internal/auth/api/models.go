package authapi

import "time"

type authenticateRequest struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}

type authenticateResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type sessionResponse struct {
	SubjectID string         `json:"subject_id"`
	TokenID   string         `json:"token_id"`
	IssuedAt  time.Time      `json:"issued_at"`
	ExpiresAt time.Time      `json:"expires_at"`
	Extra     map[string]any `json:"extra"`
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// User-facing messages. Every session failure shares one message; the reason is logged only.
const (
	msgInvalidBody        = "Invalid request body."
	msgMissingFields      = "Identity and secret are required."
	msgInvalidCredentials = "Invalid credentials."
	msgInvalidSession     = "Invalid or expired session."
	msgRateLimited        = "Too many sign-in attempts. Please wait and try again."
	msgUnavailable        = "Sign-in is temporarily unavailable. Please try again shortly."
	msgInternal           = "Something went wrong. Please try again later."
)
