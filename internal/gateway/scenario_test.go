// ABOUTME: End-to-end scenario tests over a live HTTP server
// ABOUTME: Walks the full start -> activate -> tool-call handshake as real clients would

package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) (*Gateway, *httptest.Server) {
	t.Helper()

	g := newTestGateway(t, testConfig())
	srv := httptest.NewServer(g.routes())
	t.Cleanup(srv.Close)

	return g, srv
}

func postJSONBody(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestScenario_HandshakeOverHTTP(t *testing.T) {
	_, srv := startTestServer(t)

	// 1. The tool flow asks whether u1 is authorized: it is not, and a
	//    challenge with a typable code comes back.
	resp := postJSONBody(t, srv.URL+"/local-auth/start", StartAuthRequest{UserID: "u1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	challenge := decodeBody[ChallengeResponse](t, resp)
	require.True(t, challenge.RequiresAuth)
	require.Regexp(t, `^[A-Z0-9]{8}$`, challenge.UserCode)
	require.Equal(t, 600, challenge.ExpiresIn)

	// 2. A tool call before activation is rejected with the same
	//    challenge shape (and a fresh, independent code).
	resp = postJSONBody(t, srv.URL+"/tool/dice", DiceToolRequest{UserID: "u1"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	second := decodeBody[ChallengeResponse](t, resp)
	require.True(t, second.RequiresAuth)
	assert.NotEqual(t, challenge.UserCode, second.UserCode)

	// 3. The human opens the form and submits code + credentials.
	formResp, err := http.Get(srv.URL + "/local-auth/activate")
	require.NoError(t, err)
	formResp.Body.Close()
	require.Equal(t, http.StatusOK, formResp.StatusCode)

	resp, err = http.PostForm(srv.URL+"/local-auth/activate", url.Values{
		"user_code": {challenge.UserCode},
		"username":  {"alice"},
		"password":  {"wonderland"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 4. The same tool call now proceeds, echoing the payload and
	//    exposing the token claims.
	payload := json.RawMessage(`{"sides":20}`)
	resp = postJSONBody(t, srv.URL+"/tool/dice", DiceToolRequest{UserID: "u1", Payload: payload})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody[DiceToolResponse](t, resp)
	assert.True(t, result.OK)
	assert.JSONEq(t, `{"sides":20}`, string(result.Data.Echo))
	assert.Equal(t, "u1", result.Data.TokenClaims["sub"])
	assert.Equal(t, "basic", result.Data.TokenClaims["scope"])

	// 5. Start now reports the subject as authorized.
	resp = postJSONBody(t, srv.URL+"/local-auth/start", StartAuthRequest{UserID: "u1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	state := decodeBody[map[string]bool](t, resp)
	assert.True(t, state["already_authorized"])
}

func TestScenario_WrongCredentialsOverHTTP(t *testing.T) {
	g, srv := startTestServer(t)

	resp := postJSONBody(t, srv.URL+"/local-auth/start", StartAuthRequest{UserID: "u1"})
	challenge := decodeBody[ChallengeResponse](t, resp)

	resp, err := http.PostForm(srv.URL+"/local-auth/activate", url.Values{
		"user_code": {challenge.UserCode},
		"username":  {"mallory"},
		"password":  {"guess"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The code survives for a retry within its window
	_, err = g.pending.Resolve(challenge.UserCode)
	assert.NoError(t, err)
}

func TestScenario_RequestIDHeader(t *testing.T) {
	_, srv := startTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestScenario_ActivateRejectsOtherMethods(t *testing.T) {
	_, srv := startTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/local-auth/activate", strings.NewReader(""))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
