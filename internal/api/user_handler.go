package api

import (
	"fmt"
	"net/http"
	"time"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

type UserHandler struct {
	service      domain.UserService
	auth         *Authenticator
	cookieTTL    time.Duration
	cookieSecure bool
	logger       logger.Logger
}

func NewUserHandler(service domain.UserService, auth *Authenticator, cookieTTL time.Duration, cookieSecure bool, logger logger.Logger) *UserHandler {
	return &UserHandler{
		service:      service,
		auth:         auth,
		cookieTTL:    cookieTTL,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in domain.SignupInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.service.Signup(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "User created successfully", envelope{"user": user})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, session, err := h.service.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, sessionCookie(session.Token, h.cookieTTL, h.cookieSecure))
	writeSuccess(w, http.StatusOK, fmt.Sprintf("Welcome back, %s!", user.Fullname), envelope{"user": user})
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := ClaimsFrom(r.Context()); ok {
		if err := h.service.Logout(r.Context(), claims.TokenID(), claims.ExpiresAt()); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	}

	http.SetCookie(w, sessionCookie("", -1, h.cookieSecure))
	writeSuccess(w, http.StatusOK, "You are logged out successfully!", nil)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User retrieved successfully", envelope{"user": user})
}

func (h *UserHandler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "List of all registered users", envelope{"users": users})
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), IdentityFrom(r.Context()), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User updated successfully", envelope{"user": user})
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.DeleteUser(r.Context(), IdentityFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User deleted successfully", envelope{"user": user})
}

func (h *UserHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/user/signup", h.Signup)
	mux.HandleFunc("POST /api/v1/user/login", h.Login)
	mux.HandleFunc("POST /api/v1/user/logout", h.auth.Require(h.Logout))
	mux.HandleFunc("GET /api/v1/user/getuser/{id}", h.auth.Require(h.GetUser))
	mux.HandleFunc("GET /api/v1/user/getallusers", h.auth.Require(h.GetAllUsers))
	mux.HandleFunc("PUT /api/v1/user/update/{id}", h.auth.Require(h.UpdateUser))
	mux.HandleFunc("DELETE /api/v1/user/delete/{id}", h.auth.Require(h.DeleteUser))
}
