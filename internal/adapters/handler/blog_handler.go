package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/httputil"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

type BlogHandler struct {
	blogs  ports.BlogService
	logger *slog.Logger
}

func NewBlogHandler(blogs ports.BlogService, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{blogs: blogs, logger: logger}
}

type CreateBlogRequest struct {
	Title      string `json:"title"`
	Thumbnail  string `json:"thumbnail"`
	Content    string `json:"content"`
	AuthorName string `json:"authorName"`
	Status     string `json:"status,omitempty"`
}

func (r CreateBlogRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.Thumbnail, is.URL),
	)
}

type UpdateBlogRequest struct {
	Title     *string `json:"title"`
	Thumbnail *string `json:"thumbnail"`
	Content   *string `json:"content"`
}

func (r UpdateBlogRequest) Validate() error {
	return validation.Errors{
		"title":     optional(r.Title, validation.Length(1, 200)),
		"thumbnail": optional(r.Thumbnail, is.URL),
		"content":   optional(r.Content),
	}.Filter()
}

func (h *BlogHandler) RegisterPublic(r chi.Router) {
	r.Get("/blogs/published", h.ListPublished)
	r.Get("/blogs/published/{id}", h.GetPublished)
}

func (h *BlogHandler) RegisterProtected(r chi.Router) {
	r.Post("/blogs", h.Create)
	r.Get("/blogs", h.List)
	r.Get("/blogs/{id}", h.Get)
	r.Put("/blogs/{id}", h.Update)
	r.Delete("/blogs/{id}", h.Delete)
	r.Patch("/blogs/{id}/status", h.ToggleStatus)
}

func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req CreateBlogRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	postID, err := h.blogs.Create(r.Context(), id, domain.BlogPost{
		Title:      req.Title,
		Thumbnail:  req.Thumbnail,
		Content:    req.Content,
		AuthorName: req.AuthorName,
		Status:     domain.BlogStatus(req.Status),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreatedResponse{InsertedID: postID})
}

func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	posts, err := h.blogs.List(r.Context(), id, r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	post, err := h.blogs.Get(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req UpdateBlogRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	patch := domain.BlogPatch{Title: req.Title, Thumbnail: req.Thumbnail, Content: req.Content}
	if err := h.blogs.Update(r.Context(), id, chi.URLParam(r, "id"), patch); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "blog post updated")
}

func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.blogs.Delete(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "blog post deleted")
}

// ToggleStatus takes the status the client currently shows and flips it.
// Unknown values change nothing and report changed=false.
func (h *BlogHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req StatusRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	next, changed, err := h.blogs.ToggleStatus(r.Context(), id, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ChangedResponse{Changed: changed, Status: string(next)})
}

func (h *BlogHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	posts, err := h.blogs.ListPublished(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

func (h *BlogHandler) GetPublished(w http.ResponseWriter, r *http.Request) {
	post, err := h.blogs.GetPublished(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}
