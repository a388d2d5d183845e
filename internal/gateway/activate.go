// ABOUTME: Activation endpoint where a human verifies a pending authorization
// ABOUTME: Serves the HTML form and handles the code + credential submission

package gateway

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/2389/toolgate/internal/auth"
)

// activateSuccessMessage is the human-facing confirmation. It never
// includes the token: the subject's own tool-call flow retrieves it by
// re-querying the gate.
const activateSuccessMessage = "Authorization success. You may now close this window and retry your request."

var activateTemplate = template.Must(template.New("activate").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>Authorize device</title>
  <style>
    body { font-family: sans-serif; max-width: 24rem; margin: 4rem auto; }
    label { display: block; margin-top: 1rem; }
    input { width: 100%; padding: 0.4rem; }
    button { margin-top: 1.5rem; padding: 0.5rem 1.5rem; }
  </style>
</head>
<body>
  <h1>Authorize device</h1>
  <p>Enter the code shown by your tool and your credentials.</p>
  <form method="POST" action="/local-auth/activate">
    <label>Code
      <input type="text" name="user_code" autocomplete="off" autofocus>
    </label>
    <label>Username
      <input type="text" name="username" autocomplete="username">
    </label>
    <label>Password
      <input type="password" name="password" autocomplete="current-password">
    </label>
    <button type="submit">Authorize</button>
  </form>
</body>
</html>
`))

// activateSubmission is the parsed POST body, from either the HTML form
// or a JSON client.
type activateSubmission struct {
	UserCode string `json:"user_code"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleActivate dispatches the activation endpoint: GET renders the
// form, POST processes a verification attempt.
func (g *Gateway) handleActivate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		g.renderActivateForm(w)
	case http.MethodPost:
		g.processActivation(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// renderActivateForm serves the HTML form the challenge URI points at.
func (g *Gateway) renderActivateForm(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := activateTemplate.Execute(w, nil); err != nil {
		g.logger.Error("rendering activation form", "error", err)
	}
}

// processActivation validates the submission, checks credentials, and
// on success consumes the pending code and issues a token for its
// bound subject. Responses are plain text for the browser.
func (g *Gateway) processActivation(w http.ResponseWriter, r *http.Request) {
	sub, err := parseActivation(r)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if sub.UserCode == "" || sub.Username == "" || sub.Password == "" {
		http.Error(w, "user_code, username and password are required", http.StatusBadRequest)
		return
	}

	// Check the code before touching credentials so an expired or
	// mistyped code is reported as such.
	if _, err := g.pending.Resolve(sub.UserCode); err != nil {
		g.writeActivationCodeError(w, err)
		return
	}

	if !g.creds.Verify(sub.Username, sub.Password) {
		g.logger.Info("activation rejected", "username", sub.Username)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	// The code may have expired between the resolve and now; the
	// registry re-checks under its own lock.
	subjectID, err := g.pending.MarkVerified(sub.UserCode)
	if err != nil {
		g.writeActivationCodeError(w, err)
		return
	}

	if _, err := g.tokens.Issue(subjectID); err != nil {
		g.logger.Error("issuing token", "subject", subjectID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	g.logger.Info("authorization verified", "subject", subjectID, "username", sub.Username)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(activateSuccessMessage))
}

// writeActivationCodeError maps registry errors to the plain-text
// responses of the activation endpoint.
func (g *Gateway) writeActivationCodeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrCodeExpired):
		http.Error(w, "user_code expired", http.StatusBadRequest)
	case errors.Is(err, auth.ErrCodeNotFound):
		http.Error(w, "invalid user_code", http.StatusBadRequest)
	default:
		g.logger.Error("resolving user code", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// parseActivation reads the submission from a form post or JSON body.
func parseActivation(r *http.Request) (activateSubmission, error) {
	var sub activateSubmission

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			return sub, err
		}
		return sub, nil
	}

	if err := r.ParseForm(); err != nil {
		return sub, err
	}
	sub.UserCode = r.FormValue("user_code")
	sub.Username = r.FormValue("username")
	sub.Password = r.FormValue("password")
	return sub, nil
}
