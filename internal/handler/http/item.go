package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/service"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/httputil"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/pagination"
)

// ItemHandler handles HTTP requests for catalog, rating and review endpoints.
type ItemHandler struct {
	catalog *service.CatalogService
	engage  *service.EngagementService
	logger  *slog.Logger
}

// NewItemHandler creates a new item HTTP handler.
func NewItemHandler(catalog *service.CatalogService, engage *service.EngagementService, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{catalog: catalog, engage: engage, logger: logger}
}

// --- Request DTOs ---

// CreateItemRequest is the JSON request body for adding a catalog item.
type CreateItemRequest struct {
	Name        string              `json:"name" validate:"required,notblank,max=200"`
	Description string              `json:"description" validate:"required,notblank,max=5000"`
	Price       *float64            `json:"price" validate:"required,gte=0"`
	Seller      string              `json:"seller" validate:"required,notblank,max=200"`
	Image       string              `json:"image" validate:"required,notblank"`
	Category    string              `json:"category" validate:"required"`
	Attributes  domain.AttributeSet `json:"attributes"`
}

// RatingRequest is the JSON request body for rating an item. The range is
// checked by the engagement service.
type RatingRequest struct {
	Rating int `json:"rating"`
}

// ReviewRequest is the JSON request body for reviewing an item.
type ReviewRequest struct {
	Text string `json:"text" validate:"required"`
}

// --- Handlers ---

// ListItems handles GET /api/v1/items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := pagination.FromQuery(q)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	items, total, err := h.catalog.ListItems(r.Context(), service.ListItemsInput{
		Category: q.Get("category"),
		Query:    q.Get("q"),
		Page:     page,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(items, total, page),
	})
}

// GetItem handles GET /api/v1/items/{id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseObjectID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	item, err := h.catalog.GetItem(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: item})
}

// GetItemBySlug handles GET /api/v1/items/slug/{slug}
func (h *ItemHandler) GetItemBySlug(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.GetItemBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: item})
}

// ListCategories handles GET /api/v1/categories
func (h *ItemHandler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.catalog.Categories()})
}

// CreateItem handles POST /api/v1/admin/items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	item, err := h.catalog.AddItem(r.Context(), actorFrom(r), service.AddItemInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Seller:      req.Seller,
		Image:       req.Image,
		Category:    req.Category,
		Attributes:  req.Attributes,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: item})
}

// DeleteItem handles DELETE /api/v1/admin/items/{id}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseObjectID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.catalog.DeleteItem(r.Context(), actorFrom(r), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SubmitRating handles POST /api/v1/items/{id}/rating
func (h *ItemHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseObjectID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req RatingRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.engage.SubmitRating(r.Context(), actorFrom(r), id, req.Rating)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// SubmitReview handles POST /api/v1/items/{id}/review
func (h *ItemHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseObjectID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ReviewRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.engage.SubmitReview(r.Context(), actorFrom(r), id, req.Text); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"message": "review submitted"},
	})
}
