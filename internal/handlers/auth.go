package handlers

import (
	"net/http"

	"github.com/anonto42/pulse/backend/internal/middleware"
	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	accounts *services.AccountService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	if h.accounts.FirebaseEnabled() {
		g.POST("/firebase-login", h.FirebaseLogin)
	}
}

// LoginResponse is returned by both login endpoints.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register handles local user registration with email and password
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Login exchanges email and password for an access token
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.accounts.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, LoginResponse{Token: token, User: user})
}

// Logout revokes the token the request was made with
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.accounts.Logout(c.Request().Context(), middleware.Claims(c)); err != nil {
		return err
	}
	return detailJSON(c, http.StatusOK, "Successfully logged out.")
}

// FirebaseLoginRequest carries a Firebase ID token from the client SDK.
type FirebaseLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// FirebaseLogin verifies a Firebase ID token and issues a local token
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.accounts.FirebaseLogin(c.Request().Context(), req.IDToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, LoginResponse{Token: token, User: user})
}
