package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	accountservice "atrium/contexts/identity-access/account-service"
	accounthttp "atrium/contexts/identity-access/account-service/transport/http"
)

func newTestServer() *Server {
	return New(
		accountservice.NewInMemoryModule(slog.Default()),
		slog.Default(),
		":0",
	)
}

func doRequest(t *testing.T, server *Server, method, path, token string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func registerBody(firstName, lastName, email string) []byte {
	return []byte(fmt.Sprintf(
		`{"firstName":%q,"lastName":%q,"email":%q,"password":"correct horse","phone":"0801234"}`,
		firstName, lastName, email,
	))
}

// registerUser registers an account and returns its bearer token and user id.
func registerUser(t *testing.T, server *Server, firstName, lastName, email string) (string, string) {
	t.Helper()
	rr := doRequest(t, server, http.MethodPost, "/auth/register", "", registerBody(firstName, lastName, email))
	if rr.Code != http.StatusCreated {
		t.Fatalf("register failed: %d body=%s", rr.Code, rr.Body.String())
	}
	var resp accounthttp.SessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding register response: %v", err)
	}
	return resp.Data.AccessToken, resp.Data.User.UserID
}

func fieldMessages(t *testing.T, raw []byte) map[string]string {
	t.Helper()
	var resp accounthttp.ValidationErrorResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decoding validation response: %v", err)
	}
	messages := make(map[string]string, len(resp.Errors))
	for _, item := range resp.Errors {
		messages[item.Field] = item.Message
	}
	return messages
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer()
	rr := doRequest(t, server, http.MethodGet, "/", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp accounthttp.HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding health response: %v", err)
	}
	if resp.Message != "Connection OK" {
		t.Fatalf("unexpected health message %q", resp.Message)
	}
}

func TestRegisterReturnsSessionAndUser(t *testing.T) {
	server := newTestServer()
	rr := doRequest(t, server, http.MethodPost, "/auth/register", "", registerBody("Michael", "Ekpenyong", "michael@example.com"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp accounthttp.SessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding register response: %v", err)
	}
	if resp.Status != "success" || resp.Message != "Registration successful" {
		t.Fatalf("unexpected envelope: status=%q message=%q", resp.Status, resp.Message)
	}
	if resp.Data.AccessToken == "" {
		t.Fatal("expected a non-empty access token")
	}
	user := resp.Data.User
	if user.UserID == "" || user.FirstName != "Michael" || user.LastName != "Ekpenyong" || user.Email != "michael@example.com" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
}

func TestRegisterCreatesDefaultOrganisation(t *testing.T) {
	server := newTestServer()
	token, _ := registerUser(t, server, "Michael", "Ekpenyong", "michael@example.com")

	rr := doRequest(t, server, http.MethodGet, "/api/organisations", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp accounthttp.OrganisationListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding organisations response: %v", err)
	}
	if len(resp.Data.Organisations) != 1 {
		t.Fatalf("expected exactly one organisation, got %d", len(resp.Data.Organisations))
	}
	if got := resp.Data.Organisations[0].Name; got != "Michael's Organisation" {
		t.Fatalf("unexpected default organisation name %q", got)
	}
}

func TestRegisterListsEveryMissingField(t *testing.T) {
	server := newTestServer()
	rr := doRequest(t, server, http.MethodPost, "/auth/register", "", []byte(`{}`))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	messages := fieldMessages(t, rr.Body.Bytes())
	for _, field := range []string{"firstName", "lastName", "email", "password"} {
		if messages[field] != field+" is required" {
			t.Fatalf("missing or wrong message for %q: %q", field, messages[field])
		}
	}
}

func TestRegisterRejectsDigitsInNames(t *testing.T) {
	server := newTestServer()
	rr := doRequest(t, server, http.MethodPost, "/auth/register", "", registerBody("J4ne", "Doe", "jane@example.com"))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	messages := fieldMessages(t, rr.Body.Bytes())
	if messages["firstName"] != "firstName must not contain digits" {
		t.Fatalf("unexpected firstName message %q", messages["firstName"])
	}
	if _, ok := messages["lastName"]; ok {
		t.Fatal("lastName should not be flagged")
	}
}

func TestRegisterRejectsMalformedEmail(t *testing.T) {
	server := newTestServer()
	rr := doRequest(t, server, http.MethodPost, "/auth/register", "", registerBody("Jane", "Doe", "not-an-email"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if resp["status"] != "fail" || resp["message"] != "Invalid email format" {
		t.Fatalf("unexpected error body: %s", rr.Body.String())
	}
	if _, ok := resp["statusCode"]; ok {
		t.Fatal("statusCode should be omitted")
	}
}

func TestRegisterDuplicateEmailKeepsOriginalAccount(t *testing.T) {
	server := newTestServer()
	registerUser(t, server, "Jane", "Doe", "jane@example.com")

	rr := doRequest(t, server, http.MethodPost, "/auth/register", "", []byte(
		`{"firstName":"Impostor","lastName":"Doe","email":"jane@example.com","password":"other secret","phone":""}`,
	))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	messages := fieldMessages(t, rr.Body.Bytes())
	if messages["email"] != "Email already exists" {
		t.Fatalf("unexpected email message %q", messages["email"])
	}

	// The first registration's credentials must still work.
	rr = doRequest(t, server, http.MethodPost, "/auth/login", "", []byte(
		`{"email":"jane@example.com","password":"correct horse"}`,
	))
	if rr.Code != http.StatusOK {
		t.Fatalf("original account no longer logs in: %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doRequest(t, server, http.MethodPost, "/auth/login", "", []byte(
		`{"email":"jane@example.com","password":"other secret"}`,
	))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("duplicate registration overwrote the credential: %d", rr.Code)
	}
}

func TestLoginReturnsSession(t *testing.T) {
	server := newTestServer()
	_, userID := registerUser(t, server, "Michael", "Ekpenyong", "michael@example.com")

	rr := doRequest(t, server, http.MethodPost, "/auth/login", "", []byte(
		`{"email":"michael@example.com","password":"correct horse"}`,
	))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp accounthttp.SessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	if resp.Message != "Login successful" || resp.Data.AccessToken == "" {
		t.Fatalf("unexpected login envelope: %s", rr.Body.String())
	}
	if resp.Data.User.UserID != userID {
		t.Fatalf("login returned user %q, registered %q", resp.Data.User.UserID, userID)
	}
}

func TestLoginTokenSubjectIsUserID(t *testing.T) {
	server := newTestServer()
	token, userID := registerUser(t, server, "Michael", "Ekpenyong", "michael@example.com")

	subject, err := server.accounts.Tokens.Subject(token)
	if err != nil {
		t.Fatalf("decoding issued token: %v", err)
	}
	if subject != userID {
		t.Fatalf("token subject %q, want %q", subject, userID)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	server := newTestServer()
	registerUser(t, server, "Jane", "Doe", "jane@example.com")

	wrongPassword := doRequest(t, server, http.MethodPost, "/auth/login", "", []byte(
		`{"email":"jane@example.com","password":"wrong"}`,
	))
	unknownEmail := doRequest(t, server, http.MethodPost, "/auth/login", "", []byte(
		`{"email":"nobody@example.com","password":"wrong"}`,
	))

	if wrongPassword.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPassword.Code, unknownEmail.Code)
	}
	if !bytes.Equal(wrongPassword.Body.Bytes(), unknownEmail.Body.Bytes()) {
		t.Fatalf("failure bodies differ: %s vs %s", wrongPassword.Body.String(), unknownEmail.Body.String())
	}
}
