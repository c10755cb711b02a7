package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/sentiment"
	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/pagination"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// ReviewRequest is the JSON request body for creating or editing a review.
type ReviewRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Text   string `json:"text" validate:"required,notblank"`
}

// ModerateReviewRequest is the JSON request body for flagging a review.
type ModerateReviewRequest struct {
	Flagged *bool `json:"flagged" validate:"required"`
}

// reviewResponse is a review with the display badge of its label.
type reviewResponse struct {
	domain.Review
	SentimentBadge sentiment.SentimentBadge `json:"sentimentBadge"`
}

func toReviewResponse(r domain.Review) reviewResponse {
	return reviewResponse{
		Review:         r,
		SentimentBadge: sentiment.BadgeForSentiment(r.SentimentLabel),
	}
}

func toReviewResponses(reviews []domain.Review) []reviewResponse {
	out := make([]reviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, toReviewResponse(r))
	}
	return out
}

// --- Handlers ---

// ListReviews handles GET /api/v1/products/{id}/reviews
// Query: page, limit (or per_page), sort (newest, oldest, highest, lowest, helpful).
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	params := pagination.FromRequest(r, service.DefaultReviewsPerPage)
	reviews, total, err := h.service.ListReviews(r.Context(), productID.String(), params, r.URL.Query().Get("sort"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(toReviewResponses(reviews), total, params))
}

// GetSentiment handles GET /api/v1/products/{id}/sentiment
func (h *ReviewHandler) GetSentiment(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	overview, err := h.service.GetSentiment(r.Context(), productID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, overview)
}

// CreateReview handles POST /api/v1/products/{id}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeUnauthenticated(w, r)
		return
	}

	var req ReviewRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	review, err := h.service.CreateReview(r.Context(), &service.CreateReviewInput{
		ProductID:  productID.String(),
		UserID:     claims.UserID,
		AuthorName: claims.Username,
		Rating:     req.Rating,
		Text:       req.Text,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, toReviewResponse(*review))
}

// UpdateReview handles PUT /api/v1/reviews/{id}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeUnauthenticated(w, r)
		return
	}

	var req ReviewRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	review, err := h.service.UpdateReview(r.Context(), &service.UpdateReviewInput{
		ReviewID: reviewID.String(),
		UserID:   claims.UserID,
		Rating:   req.Rating,
		Text:     req.Text,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, toReviewResponse(*review))
}

// DeleteReview handles DELETE /api/v1/reviews/{id}
// The author or an admin may delete a review.
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeUnauthenticated(w, r)
		return
	}

	if err := h.service.DeleteReview(r.Context(), reviewID.String(), claims.UserID, claims.Role); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkHelpful handles POST /api/v1/reviews/{id}/helpful
func (h *ReviewHandler) MarkHelpful(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeUnauthenticated(w, r)
		return
	}

	count, err := h.service.MarkHelpful(r.Context(), reviewID.String(), claims.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]int{"helpfulCount": count})
}

// ModerateReview handles PUT /api/v1/admin/reviews/{id}/moderate
func (h *ReviewHandler) ModerateReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ModerateReviewRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	review, err := h.service.ModerateReview(r.Context(), reviewID.String(), *req.Flagged)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, toReviewResponse(*review))
}

func writeUnauthenticated(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
}
