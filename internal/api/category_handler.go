package api

import (
	"net/http"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

type CategoryHandler struct {
	service domain.CategoryService
	auth    *Authenticator
	logger  logger.Logger
}

func NewCategoryHandler(service domain.CategoryService, auth *Authenticator, logger logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

// Create records a category whose creator is the {id} path segment.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	category, err := h.service.Create(r.Context(), IdentityFrom(r.Context()), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Category created successfully", envelope{"category": category})
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Categories retrieved successfully", envelope{"categories": categories})
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	category, err := h.service.Delete(r.Context(), IdentityFrom(r.Context()), r.PathValue("uid"), r.PathValue("categoryId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Category deleted successfully", envelope{"category": category})
}

func (h *CategoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/category/create/{id}", h.auth.Require(h.Create))
	mux.HandleFunc("GET /api/v1/category/getall", h.auth.Require(h.List))
	mux.HandleFunc("DELETE /api/v1/category/delete/user/{uid}/category/{categoryId}", h.auth.Require(h.Delete))
}
