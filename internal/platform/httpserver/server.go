package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	accountservice "atrium/contexts/identity-access/account-service"
	domainerrors "atrium/contexts/identity-access/account-service/domain/errors"
	accounthttp "atrium/contexts/identity-access/account-service/transport/http"

	_ "atrium/internal/platform/httpserver/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	accounts accountservice.Module
}

func New(accounts accountservice.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		accounts: accounts,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /{$}", s.handleHealth)

	s.mux.HandleFunc("POST /auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /auth/login", s.handleLogin)

	s.mux.HandleFunc("GET /api/users/{id}", s.handleGetUser)
	s.mux.HandleFunc("GET /api/organisations", s.handleListOrganisations)
	s.mux.HandleFunc("POST /api/organisations", s.handleCreateOrganisation)
	s.mux.HandleFunc("GET /api/organisations/{orgId}", s.handleGetOrganisation)
	s.mux.HandleFunc("POST /api/organisations/{orgId}/users", s.handleAddMember)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, accounthttp.HealthResponse{Message: "Connection OK"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req accounthttp.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, accounthttp.StatusErrorResponse{
			Status:     "Bad request",
			Message:    "Registration unsuccessful",
			StatusCode: http.StatusBadRequest,
		})
		return
	}

	resp, err := s.accounts.Handler.RegisterHandler(r.Context(), req)
	if err != nil {
		s.writeRegisterError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req accounthttp.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthenticationFailure(w)
		return
	}

	resp, err := s.accounts.Handler.LoginHandler(r.Context(), req)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAuthenticationFailed) {
			writeAuthenticationFailure(w)
			return
		}
		s.writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	requesterID, err := s.authenticate(r)
	if err != nil {
		writeAuthenticationFailure(w)
		return
	}

	resp, err := s.accounts.Handler.GetUserHandler(r.Context(), requesterID, r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrAccessDenied):
			writeStatusError(w, http.StatusForbidden, "Bad request", "Access denied")
		case errors.Is(err, domainerrors.ErrUserNotFound):
			writeStatusError(w, http.StatusNotFound, "Not found", "User not found")
		default:
			s.writeInternalError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListOrganisations(w http.ResponseWriter, r *http.Request) {
	requesterID, err := s.authenticate(r)
	if err != nil {
		writeAuthenticationFailure(w)
		return
	}

	resp, err := s.accounts.Handler.ListOrganisationsHandler(r.Context(), requesterID)
	if err != nil {
		s.writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOrganisation(w http.ResponseWriter, r *http.Request) {
	requesterID, err := s.authenticate(r)
	if err != nil {
		writeAuthenticationFailure(w)
		return
	}

	resp, err := s.accounts.Handler.GetOrganisationHandler(r.Context(), requesterID, r.PathValue("orgId"))
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrOrganisationNotFound):
			writeStatusError(w, http.StatusNotFound, "Not found", "Organisation not found")
		case errors.Is(err, domainerrors.ErrAccessDenied):
			writeStatusError(w, http.StatusForbidden, "Bad request", "Access denied")
		default:
			s.writeInternalError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateOrganisation(w http.ResponseWriter, r *http.Request) {
	requesterID, err := s.authenticate(r)
	if err != nil {
		writeAuthenticationFailure(w)
		return
	}

	// An unreadable body carries no name, which is the same failure.
	var req accounthttp.CreateOrganisationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeNameRequired(w)
		return
	}

	resp, err := s.accounts.Handler.CreateOrganisationHandler(r.Context(), requesterID, req)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNameRequired) {
			writeNameRequired(w)
			return
		}
		s.logger.Error("organisation creation failed",
			"event", "http_create_organisation_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeJSON(w, http.StatusInternalServerError, accounthttp.StatusErrorResponse{
			Status:  "error",
			Message: "An error occurred while creating the organization",
		})
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		writeAuthenticationFailure(w)
		return
	}

	var req accounthttp.AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeUserIDRequired(w)
		return
	}

	resp, err := s.accounts.Handler.AddMemberHandler(r.Context(), r.PathValue("orgId"), req)
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrUserIDRequired):
			writeUserIDRequired(w)
		case errors.Is(err, domainerrors.ErrOrganisationNotFound):
			writeStatusError(w, http.StatusNotFound, "Not found", "Organisation not found")
		case errors.Is(err, domainerrors.ErrUserNotFound):
			writeStatusError(w, http.StatusNotFound, "Not found", "User not found")
		case errors.Is(err, domainerrors.ErrAlreadyMember):
			writeStatusError(w, http.StatusBadRequest, "Bad request", "User already in organisation")
		default:
			s.writeInternalError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// authenticate resolves the bearer token into the requesting user id.
func (s *Server) authenticate(r *http.Request) (string, error) {
	scheme, credentials, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", domainerrors.ErrInvalidToken
	}
	return s.accounts.Tokens.Subject(strings.TrimSpace(credentials))
}

func (s *Server) writeRegisterError(w http.ResponseWriter, err error) {
	if validation, ok := domainerrors.AsValidation(err); ok {
		writeValidationError(w, validation.Fields)
		return
	}
	switch {
	case errors.Is(err, domainerrors.ErrDuplicateEmail):
		writeValidationError(w, []domainerrors.FieldError{
			{Field: "email", Message: "Email already exists"},
		})
	case errors.Is(err, domainerrors.ErrInvalidEmail):
		writeJSON(w, http.StatusBadRequest, accounthttp.StatusErrorResponse{
			Status:  "fail",
			Message: "Invalid email format",
		})
	default:
		s.logger.Error("registration failed",
			"event", "http_register_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeJSON(w, http.StatusInternalServerError, accounthttp.StatusErrorResponse{
			Status:  "error",
			Message: "Internal server error",
		})
	}
}

func (s *Server) writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		"event", "http_request_failed",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"path", r.URL.Path,
		"error", err.Error(),
	)
	writeJSON(w, http.StatusInternalServerError, accounthttp.StatusErrorResponse{
		Status:  "error",
		Message: "Internal server error",
	})
}

func writeAuthenticationFailure(w http.ResponseWriter) {
	writeStatusError(w, http.StatusUnauthorized, "Bad request", "Authentication failed")
}

func writeNameRequired(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, accounthttp.StatusErrorResponse{
		Status:  "Bad Request",
		Message: "Name is required",
	})
}

func writeUserIDRequired(w http.ResponseWriter) {
	writeValidationError(w, []domainerrors.FieldError{
		{Field: "userId", Message: "userId is required"},
	})
}

func writeStatusError(w http.ResponseWriter, status int, statusLabel, message string) {
	writeJSON(w, status, accounthttp.StatusErrorResponse{
		Status:     statusLabel,
		Message:    message,
		StatusCode: status,
	})
}

func writeValidationError(w http.ResponseWriter, fields []domainerrors.FieldError) {
	resp := accounthttp.ValidationErrorResponse{
		Errors: make([]accounthttp.FieldErrorPayload, 0, len(fields)),
	}
	for _, field := range fields {
		resp.Errors = append(resp.Errors, accounthttp.FieldErrorPayload{
			Field:   field.Field,
			Message: field.Message,
		})
	}
	writeJSON(w, http.StatusUnprocessableEntity, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
