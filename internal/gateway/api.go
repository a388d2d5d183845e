// ABOUTME: JSON API handlers for the authorization handshake and the gated tool call
// ABOUTME: Provides POST /local-auth/start and POST /tool/dice

package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/2389/toolgate/internal/auth"
)

// StartAuthRequest is the JSON request body for POST /local-auth/start.
type StartAuthRequest struct {
	UserID string `json:"user_id"`
}

// ChallengeResponse is returned when a subject must complete the
// out-of-band handshake before its tool call can proceed.
type ChallengeResponse struct {
	RequiresAuth    bool   `json:"requires_auth"`
	VerificationURI string `json:"verification_uri"`
	UserCode        string `json:"user_code"`
	ExpiresIn       int    `json:"expires_in"`
	Message         string `json:"message"`
}

// DiceToolRequest is the JSON request body for POST /tool/dice.
type DiceToolRequest struct {
	UserID  string          `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
}

// DiceToolResponse is returned for an authorized tool call.
type DiceToolResponse struct {
	OK   bool         `json:"ok"`
	Data DiceToolData `json:"data"`
}

// DiceToolData carries the echoed payload and the decoded token claims.
type DiceToolData struct {
	Echo        json.RawMessage `json:"echo"`
	TokenClaims map[string]any  `json:"token_claims"`
}

// handleAuthStart reports the subject's authorization state, opening a
// new handshake when no valid token exists.
func (g *Gateway) handleAuthStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req StartAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	decision, err := g.gate.Authorize(req.UserID)
	if err != nil {
		g.logger.Error("authorize failed", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if decision.Proceed {
		writeJSON(w, http.StatusOK, map[string]bool{"already_authorized": true})
		return
	}

	g.logger.Info("authorization challenge issued", "user_id", req.UserID)
	writeJSON(w, http.StatusOK, challengeResponse(decision.Challenge))
}

// handleDiceTool performs the protected action when the subject holds a
// valid token, and answers 401 with the handshake challenge otherwise.
func (g *Gateway) handleDiceTool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req DiceToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	decision, err := g.gate.Authorize(req.UserID)
	if err != nil {
		g.logger.Error("authorize failed", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !decision.Proceed {
		g.logger.Info("tool call challenged", "user_id", req.UserID)
		writeJSON(w, http.StatusUnauthorized, challengeResponse(decision.Challenge))
		return
	}

	token, ok := g.tokens.Token(req.UserID)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	claims, err := g.tokens.Decode(token)
	if err != nil {
		g.logger.Error("decoding issued token", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	echo := req.Payload
	if echo == nil {
		echo = json.RawMessage("null")
	}

	writeJSON(w, http.StatusOK, DiceToolResponse{
		OK: true,
		Data: DiceToolData{
			Echo:        echo,
			TokenClaims: claims,
		},
	})
}

// challengeResponse renders a gate challenge as the wire payload shared
// by /local-auth/start and unauthorized tool calls.
func challengeResponse(c *auth.Challenge) ChallengeResponse {
	return ChallengeResponse{
		RequiresAuth:    true,
		VerificationURI: c.VerificationURI,
		UserCode:        c.UserCode,
		ExpiresIn:       c.ExpiresIn,
		Message: fmt.Sprintf("Open %s and enter code %s to authorize this request.",
			c.VerificationURI, c.UserCode),
	}
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body with a message field.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
