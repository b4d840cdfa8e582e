package httpserver

import (
	"encoding/json"
	"net/http"
	"testing"

	accounthttp "atrium/contexts/identity-access/account-service/transport/http"
)

func TestGetUserReturnsOwnRecord(t *testing.T) {
	server := newTestServer()
	token, userID := registerUser(t, server, "Michael", "Ekpenyong", "michael@example.com")

	rr := doRequest(t, server, http.MethodGet, "/api/users/"+userID, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp accounthttp.UserResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding user response: %v", err)
	}
	if resp.Status != "success" || resp.Message != "User fetched successfully" {
		t.Fatalf("unexpected envelope: status=%q message=%q", resp.Status, resp.Message)
	}
	if resp.Data.UserID != userID || resp.Data.Email != "michael@example.com" {
		t.Fatalf("unexpected user payload: %+v", resp.Data)
	}
}

func TestGetUserRequiresBearerToken(t *testing.T) {
	server := newTestServer()
	_, userID := registerUser(t, server, "Michael", "Ekpenyong", "michael@example.com")

	rr := doRequest(t, server, http.MethodGet, "/api/users/"+userID, "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp accounthttp.StatusErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if resp.Message != "Authentication failed" || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected error body: %s", rr.Body.String())
	}
}

func TestGetUserRejectsGarbageToken(t *testing.T) {
	server := newTestServer()
	_, userID := registerUser(t, server, "Michael", "Ekpenyong", "michael@example.com")

	rr := doRequest(t, server, http.MethodGet, "/api/users/"+userID, "not-a-jwt", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGetUserForeignIDIsForbidden(t *testing.T) {
	server := newTestServer()
	tokenA, _ := registerUser(t, server, "Jane", "Doe", "jane@example.com")
	_, userB := registerUser(t, server, "John", "Smith", "john@example.com")

	rr := doRequest(t, server, http.MethodGet, "/api/users/"+userB, tokenA, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp accounthttp.StatusErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if resp.Message != "Access denied" {
		t.Fatalf("unexpected error body: %s", rr.Body.String())
	}
}

func TestGetUserUnknownIDIsForbiddenNotNotFound(t *testing.T) {
	server := newTestServer()
	token, _ := registerUser(t, server, "Jane", "Doe", "jane@example.com")

	// A foreign id must not reveal whether the record exists.
	rr := doRequest(t, server, http.MethodGet, "/api/users/no-such-user", token, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}
