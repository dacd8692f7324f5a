package api

import (
	"net/http"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

type BlogHandler struct {
	service domain.BlogService
	auth    *Authenticator
	logger  logger.Logger
}

func NewBlogHandler(service domain.BlogService, auth *Authenticator, logger logger.Logger) *BlogHandler {
	return &BlogHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateBlogInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	blog, err := h.service.Create(r.Context(), IdentityFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Blog created successfully", envelope{"blog": blog})
}

func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Blogs retrieved successfully", envelope{"blogs": blogs})
}

func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	blog, err := h.service.Get(r.Context(), r.PathValue("blogId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Blog retrieved successfully", envelope{"blog": blog})
}

func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateBlogInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	blog, err := h.service.Update(r.Context(), IdentityFrom(r.Context()), r.PathValue("blogId"), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Blog updated successfully", envelope{"blog": blog})
}

func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), IdentityFrom(r.Context()), r.PathValue("blogId")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Blog deleted successfully", nil)
}

func (h *BlogHandler) Comment(w http.ResponseWriter, r *http.Request) {
	var in domain.CommentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	blog, err := h.service.AddComment(r.Context(), IdentityFrom(r.Context()), r.PathValue("blogId"), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Comment added successfully", envelope{"blog": blog})
}

// engage builds the handler for one engagement action.
func (h *BlogHandler) engage(action domain.EngagementAction, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blog, err := h.service.Engage(r.Context(), IdentityFrom(r.Context()), r.PathValue("blogId"), action)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		payload := envelope{"blog": blog}
		if action == domain.ActionLike {
			payload["likes"] = blog.Likes.Count
		}
		writeSuccess(w, http.StatusOK, message, payload)
	}
}

func (h *BlogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/blog/create", h.auth.Require(h.Create))
	mux.HandleFunc("GET /api/v1/blog/get", h.auth.Require(h.List))
	mux.HandleFunc("GET /api/v1/blog/get/{blogId}", h.auth.Require(h.Get))
	mux.HandleFunc("PUT /api/v1/blog/update/{blogId}", h.auth.Require(h.Update))
	mux.HandleFunc("DELETE /api/v1/blog/delete/{blogId}", h.auth.Require(h.Delete))
	mux.HandleFunc("PUT /api/v1/blog/comment/{blogId}", h.auth.Require(h.Comment))
	mux.HandleFunc("PUT /api/v1/blog/like/{blogId}", h.auth.Require(h.engage(domain.ActionLike, "Blog liked successfully")))
	mux.HandleFunc("PUT /api/v1/blog/unlike/{blogId}", h.auth.Require(h.engage(domain.ActionUnlike, "Blog unliked successfully")))
	mux.HandleFunc("PUT /api/v1/blog/dislike/{blogId}", h.auth.Require(h.engage(domain.ActionDislike, "Blog disliked successfully")))
	mux.HandleFunc("PUT /api/v1/blog/remove/dislike/{blogId}", h.auth.Require(h.engage(domain.ActionRemoveDislike, "Removed dislike successfully")))
	mux.HandleFunc("PUT /api/v1/blog/view/{blogId}", h.auth.Require(h.engage(domain.ActionView, "Blog view incremented and user tracked")))
}
