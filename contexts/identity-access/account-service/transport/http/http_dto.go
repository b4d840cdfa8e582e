package http

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateOrganisationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type AddMemberRequest struct {
	UserID string `json:"userId"`
}

// UserPayload never carries the password credential.
type UserPayload struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type OrganisationPayload struct {
	OrgID       string `json:"orgId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SessionResponse is the register/login success envelope.
type SessionResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AccessToken string      `json:"accessToken"`
		User        UserPayload `json:"user"`
	} `json:"data"`
}

type UserResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    UserPayload `json:"data"`
}

type OrganisationListResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Organisations []OrganisationPayload `json:"organisations"`
	} `json:"data"`
}

type OrganisationResponse struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Data    OrganisationPayload `json:"data"`
}

type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Message string `json:"message"`
}

type FieldErrorPayload struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse is the field-scoped 422 error shape.
type ValidationErrorResponse struct {
	Errors []FieldErrorPayload `json:"errors"`
}

// StatusErrorResponse is the generic error shape. StatusCode is omitted on
// the call sites that never carried it.
type StatusErrorResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
}
