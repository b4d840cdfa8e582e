package httpadapter

import (
	"context"
	"log/slog"

	"atrium/contexts/identity-access/account-service/application"
	"atrium/contexts/identity-access/account-service/domain/entities"
	httptransport "atrium/contexts/identity-access/account-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RegisterHandler(ctx context.Context, req httptransport.RegisterRequest) (httptransport.SessionResponse, error) {
	session, err := h.Service.Register(ctx, application.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
	})
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return sessionResponse("Registration successful", session), nil
}

func (h Handler) LoginHandler(ctx context.Context, req httptransport.LoginRequest) (httptransport.SessionResponse, error) {
	session, err := h.Service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return sessionResponse("Login successful", session), nil
}

func (h Handler) GetUserHandler(ctx context.Context, requesterID, userID string) (httptransport.UserResponse, error) {
	user, err := h.Service.GetUser(ctx, requesterID, userID)
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return httptransport.UserResponse{
		Status:  "success",
		Message: "User fetched successfully",
		Data:    userPayload(user),
	}, nil
}

func (h Handler) ListOrganisationsHandler(ctx context.Context, requesterID string) (httptransport.OrganisationListResponse, error) {
	orgs, err := h.Service.ListOrganisations(ctx, requesterID)
	if err != nil {
		return httptransport.OrganisationListResponse{}, err
	}
	resp := httptransport.OrganisationListResponse{
		Status:  "success",
		Message: "Organisations fetched successfully",
	}
	resp.Data.Organisations = make([]httptransport.OrganisationPayload, 0, len(orgs))
	for _, org := range orgs {
		resp.Data.Organisations = append(resp.Data.Organisations, organisationPayload(org))
	}
	return resp, nil
}

func (h Handler) GetOrganisationHandler(ctx context.Context, requesterID, orgID string) (httptransport.OrganisationResponse, error) {
	org, err := h.Service.GetOrganisation(ctx, requesterID, orgID)
	if err != nil {
		return httptransport.OrganisationResponse{}, err
	}
	return httptransport.OrganisationResponse{
		Status:  "success",
		Message: "Organisation fetched successfully",
		Data:    organisationPayload(org),
	}, nil
}

func (h Handler) CreateOrganisationHandler(ctx context.Context, requesterID string, req httptransport.CreateOrganisationRequest) (httptransport.OrganisationResponse, error) {
	org, err := h.Service.CreateOrganisation(ctx, requesterID, req.Name, req.Description)
	if err != nil {
		return httptransport.OrganisationResponse{}, err
	}
	return httptransport.OrganisationResponse{
		Status:  "success",
		Message: "Organisation created successfully",
		Data:    organisationPayload(org),
	}, nil
}

func (h Handler) AddMemberHandler(ctx context.Context, orgID string, req httptransport.AddMemberRequest) (httptransport.MessageResponse, error) {
	if err := h.Service.AddMember(ctx, orgID, req.UserID); err != nil {
		return httptransport.MessageResponse{}, err
	}
	return httptransport.MessageResponse{
		Status:  "success",
		Message: "User added to organisation successfully",
	}, nil
}

func sessionResponse(message string, session application.Session) httptransport.SessionResponse {
	resp := httptransport.SessionResponse{
		Status:  "success",
		Message: message,
	}
	resp.Data.AccessToken = session.AccessToken
	resp.Data.User = userPayload(session.User)
	return resp
}

func userPayload(user entities.User) httptransport.UserPayload {
	return httptransport.UserPayload{
		UserID:    user.UserID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone,
	}
}

func organisationPayload(org entities.Organisation) httptransport.OrganisationPayload {
	return httptransport.OrganisationPayload{
		OrgID:       org.OrgID,
		Name:        org.Name,
		Description: org.Description,
	}
}
