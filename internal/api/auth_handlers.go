package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/archipelago/notes-api/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/auth-service/registration",
		Summary:       "Register new user",
		Description:   "Creates a user account and signs it in",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth-service/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns an access token, also set as a cookie",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/auth-service/logout",
		Summary:     "Logout",
		Description: "Clears the access token cookie",
		Tags:        []string{"Authentication"},
	}, s.handleLogout)
}

// === DTOs ===

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email    string `json:"email" doc:"User email address"`
	Password string `json:"password" doc:"User password, at least 8 characters"`
	Name     string `json:"name,omitempty" doc:"Display name"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body RegisterRequest
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" doc:"User email"`
	Password string `json:"password" doc:"User password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// AuthResponse contains the signed-in user and their access token.
type AuthResponse struct {
	UserID      string    `json:"user_id" doc:"User ID"`
	Email       string    `json:"email" doc:"User email"`
	AccessToken string    `json:"access_token" doc:"PASETO access token"`
	ExpiresAt   time.Time `json:"expires_at" doc:"Token expiry"`
}

// AuthOutput wraps the auth response and session cookie for Huma.
type AuthOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      AuthResponse
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// LogoutOutput clears the session cookie.
type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      MessageResponse
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	if err := s.checkRateLimit(ctx, s.authRateLimiter, "auth", clientIP(ctx)); err != nil {
		return nil, err
	}

	resp, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Name:     input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return s.authOutput(resp), nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	if err := s.checkRateLimit(ctx, s.authRateLimiter, "auth", clientIP(ctx)); err != nil {
		return nil, err
	}

	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return s.authOutput(resp), nil
}

func (s *Server) handleLogout(_ context.Context, _ *struct{}) (*LogoutOutput, error) {
	cookie := s.sessionCookie("")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)

	return &LogoutOutput{
		SetCookie: cookie,
		Body:      MessageResponse{Message: "Logged out successfully"},
	}, nil
}

// === Helpers ===

func (s *Server) authOutput(resp *service.AuthResponse) *AuthOutput {
	cookie := s.sessionCookie(resp.AccessToken)
	cookie.Expires = resp.ExpiresAt

	return &AuthOutput{
		SetCookie: cookie,
		Body: AuthResponse{
			UserID:      resp.User.ID,
			Email:       resp.User.Email,
			AccessToken: resp.AccessToken,
			ExpiresAt:   resp.ExpiresAt,
		},
	}
}

func (s *Server) sessionCookie(value string) http.Cookie {
	return http.Cookie{
		Name:     accessTokenCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.App.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	}
}
