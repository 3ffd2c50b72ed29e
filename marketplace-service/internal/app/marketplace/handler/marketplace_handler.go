package handler

import (
	"errors"
	"net/http"
	"time"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"
	"stilnovo/marketplace-service/internal/app/marketplace/service"
	"stilnovo/pkg/logger"
	"stilnovo/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MarketplaceHandler обрабатывает HTTP запросы покупок, отзывов и рекомендаций
type MarketplaceHandler struct {
	purchases       service.PurchaseServiceInterface
	reputation      service.ReputationServiceInterface
	interactions    service.InteractionServiceInterface
	recommendations service.RecommendationServiceInterface
	validator       *validator.Validate
}

// NewMarketplaceHandler создает новый обработчик маркетплейса
func NewMarketplaceHandler(
	purchases service.PurchaseServiceInterface,
	reputation service.ReputationServiceInterface,
	interactions service.InteractionServiceInterface,
	recommendations service.RecommendationServiceInterface,
) *MarketplaceHandler {
	return &MarketplaceHandler{
		purchases:       purchases,
		reputation:      reputation,
		interactions:    interactions,
		recommendations: recommendations,
		validator:       validator.New(),
	}
}

// PurchaseListing обрабатывает POST /listings/:id/purchase
// Продавец не может купить собственное объявление
func (h *MarketplaceHandler) PurchaseListing(c *gin.Context) {
	buyerID := currentUserID(c)
	if buyerID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	listingID, ok := parseIDParam(c, "id", "Invalid listing ID")
	if !ok {
		return
	}

	listing, err := h.purchases.GetListing(c.Request.Context(), listingID)
	if err != nil {
		h.writeError(c, err, "Failed to get listing")
		return
	}
	if listing.SellerID == buyerID {
		metrics.RecordPurchaseConflict("self_purchase")
		h.writeError(c, service.ErrSelfPurchase, "Failed to purchase listing")
		return
	}

	tx, err := h.purchases.ExecutePurchase(c.Request.Context(), listingID, buyerID)
	if err != nil {
		h.writeError(c, err, "Failed to purchase listing")
		return
	}

	c.JSON(http.StatusCreated, buildTransactionResponse(tx))
}

// RecordInteraction обрабатывает POST /listings/:id/interactions
func (h *MarketplaceHandler) RecordInteraction(c *gin.Context) {
	accountID := currentUserID(c)
	if accountID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	listingID, ok := parseIDParam(c, "id", "Invalid listing ID")
	if !ok {
		return
	}

	var req entity.RecordInteractionRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	interaction, err := h.interactions.RecordInteraction(c.Request.Context(), accountID, listingID, req.Kind)
	if err != nil {
		h.writeError(c, err, "Failed to record interaction")
		return
	}

	c.JSON(http.StatusCreated, interaction)
}

// LikeListing обрабатывает POST /listings/:id/like
func (h *MarketplaceHandler) LikeListing(c *gin.Context) {
	accountID := currentUserID(c)
	if accountID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	listingID, ok := parseIDParam(c, "id", "Invalid listing ID")
	if !ok {
		return
	}

	interaction, err := h.interactions.LikeListing(c.Request.Context(), accountID, listingID)
	if err != nil {
		h.writeError(c, err, "Failed to like listing")
		return
	}

	c.JSON(http.StatusCreated, interaction)
}

// GetRecommendations обрабатывает GET /recommendations?limit=N
// Анонимный запрос получает пустой список
func (h *MarketplaceHandler) GetRecommendations(c *gin.Context) {
	var query entity.RecommendationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}
	if err := h.validator.Struct(query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	listings, err := h.recommendations.Recommend(c.Request.Context(), currentUserID(c), query.Limit)
	if err != nil {
		h.writeError(c, err, "Failed to get recommendations")
		return
	}

	response := make([]entity.ListingResponse, len(listings))
	for i := range listings {
		response[i] = buildListingResponse(&listings[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": response,
		"total":    len(response),
	})
}

// GetTransaction обрабатывает GET /transactions/:id
func (h *MarketplaceHandler) GetTransaction(c *gin.Context) {
	accountID := currentUserID(c)
	if accountID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txID, ok := parseIDParam(c, "id", "Invalid transaction ID")
	if !ok {
		return
	}

	tx, err := h.purchases.GetTransactionForParticipant(c.Request.Context(), txID, accountID)
	if err != nil {
		h.writeError(c, err, "Failed to get transaction")
		return
	}

	c.JSON(http.StatusOK, buildTransactionResponse(tx))
}

// GetTransactions обрабатывает GET /transactions?role=buyer|seller
// По умолчанию возвращает покупки текущего пользователя
func (h *MarketplaceHandler) GetTransactions(c *gin.Context) {
	accountID := currentUserID(c)
	if accountID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var (
		txs []entity.Transaction
		err error
	)
	switch c.DefaultQuery("role", "buyer") {
	case "buyer":
		txs, err = h.purchases.GetBuyerTransactions(c.Request.Context(), accountID)
	case "seller":
		txs, err = h.purchases.GetSellerTransactions(c.Request.Context(), accountID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be buyer or seller"})
		return
	}
	if err != nil {
		h.writeError(c, err, "Failed to get transactions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": buildTransactionList(txs),
		"total":        len(txs),
	})
}

// GetPendingRatings обрабатывает GET /transactions/pending-ratings
func (h *MarketplaceHandler) GetPendingRatings(c *gin.Context) {
	accountID := currentUserID(c)
	if accountID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txs, err := h.purchases.GetPendingRatings(c.Request.Context(), accountID)
	if err != nil {
		h.writeError(c, err, "Failed to get pending ratings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": buildTransactionList(txs),
		"total":        len(txs),
	})
}

// SaveRating обрабатывает POST /transactions/:id/rating
func (h *MarketplaceHandler) SaveRating(c *gin.Context) {
	buyerID := currentUserID(c)
	if buyerID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txID, ok := parseIDParam(c, "id", "Invalid transaction ID")
	if !ok {
		return
	}

	var req entity.SaveRatingRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	rating, err := h.reputation.SaveRating(c.Request.Context(), txID, req.Stars, req.Comment, buyerID)
	if err != nil {
		h.writeError(c, err, "Failed to save rating")
		return
	}

	c.JSON(http.StatusCreated, buildRatingResponse(rating))
}

// EditRating обрабатывает PATCH /ratings/:id
func (h *MarketplaceHandler) EditRating(c *gin.Context) {
	accountID := currentUserID(c)
	if accountID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ratingID, ok := parseIDParam(c, "id", "Invalid rating ID")
	if !ok {
		return
	}

	var req entity.EditRatingRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	rating, err := h.reputation.EditRating(c.Request.Context(), ratingID, req.Stars, req.Comment, accountID)
	if err != nil {
		h.writeError(c, err, "Failed to edit rating")
		return
	}

	c.JSON(http.StatusOK, buildRatingResponse(rating))
}

// DeleteRating обрабатывает DELETE /ratings/:id
func (h *MarketplaceHandler) DeleteRating(c *gin.Context) {
	accountID := currentUserID(c)
	if accountID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ratingID, ok := parseIDParam(c, "id", "Invalid rating ID")
	if !ok {
		return
	}

	if err := h.reputation.DeleteRating(c.Request.Context(), ratingID, accountID); err != nil {
		h.writeError(c, err, "Failed to delete rating")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Rating deleted successfully",
	})
}

// GetMyRatings обрабатывает GET /ratings - отзывы, оставленные текущим пользователем
func (h *MarketplaceHandler) GetMyRatings(c *gin.Context) {
	accountID := currentUserID(c)
	if accountID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ratings, err := h.reputation.GetBuyerRatings(c.Request.Context(), accountID)
	if err != nil {
		h.writeError(c, err, "Failed to get ratings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ratings": buildRatingList(ratings),
		"total":   len(ratings),
	})
}

// GetSellerRatings обрабатывает GET /sellers/:id/ratings
func (h *MarketplaceHandler) GetSellerRatings(c *gin.Context) {
	sellerID, ok := parseIDParam(c, "id", "Invalid seller ID")
	if !ok {
		return
	}

	ratings, err := h.reputation.GetSellerRatings(c.Request.Context(), sellerID)
	if err != nil {
		h.writeError(c, err, "Failed to get seller ratings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ratings": buildRatingList(ratings),
		"total":   len(ratings),
	})
}

// DeleteTransaction обрабатывает DELETE /admin/transactions/:id
func (h *MarketplaceHandler) DeleteTransaction(c *gin.Context) {
	txID, ok := parseIDParam(c, "id", "Invalid transaction ID")
	if !ok {
		return
	}

	if err := h.reputation.DeleteTransaction(c.Request.Context(), txID); err != nil {
		h.writeError(c, err, "Failed to delete transaction")
		return
	}

	logger.Info().
		Str("transaction_id", txID.String()).
		Str("admin_id", currentUserID(c).String()).
		Msg("Admin deleted transaction")

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Transaction deleted successfully",
	})
}

// GetPlatformStats обрабатывает GET /admin/stats
func (h *MarketplaceHandler) GetPlatformStats(c *gin.Context) {
	stats, err := h.purchases.GetPlatformStats(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "Failed to get platform stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *MarketplaceHandler) bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return false
	}
	return true
}

// writeError маппит категории ошибок сервиса на HTTP статусы
func (h *MarketplaceHandler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Not found", Message: err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, entity.ErrorResponse{Error: "Access denied", Message: err.Error()})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, entity.ErrorResponse{Error: "Conflict", Message: err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request", Message: err.Error()})
	default:
		logger.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg(fallback)
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: fallback})
	}
}

func parseIDParam(c *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return uuid.Nil, false
	}
	return id, true
}

func buildTransactionResponse(tx *entity.Transaction) entity.TransactionResponse {
	return entity.TransactionResponse{
		ID:         tx.ID,
		SellerID:   tx.SellerID,
		BuyerID:    tx.BuyerID,
		ListingID:  tx.ListingID,
		FinalPrice: tx.FinalPrice,
		Status:     tx.Status,
		CreatedAt:  tx.CreatedAt.Format(time.RFC3339),
	}
}

func buildTransactionList(txs []entity.Transaction) []entity.TransactionResponse {
	out := make([]entity.TransactionResponse, len(txs))
	for i := range txs {
		out[i] = buildTransactionResponse(&txs[i])
	}
	return out
}

func buildRatingResponse(rating *entity.Rating) entity.RatingResponse {
	return entity.RatingResponse{
		ID:            rating.ID,
		TransactionID: rating.TransactionID,
		Stars:         rating.Stars,
		Comment:       rating.Comment,
		SellerID:      rating.SellerID,
		BuyerID:       rating.BuyerID,
		CreatedAt:     rating.CreatedAt.Format(time.RFC3339),
	}
}

func buildRatingList(ratings []entity.Rating) []entity.RatingResponse {
	out := make([]entity.RatingResponse, len(ratings))
	for i := range ratings {
		out[i] = buildRatingResponse(&ratings[i])
	}
	return out
}

func buildListingResponse(listing *entity.Listing) entity.ListingResponse {
	return entity.ListingResponse{
		ID:       listing.ID,
		Name:     listing.Name,
		Category: listing.Category,
		Price:    listing.Price,
		Location: listing.Location,
		Status:   listing.Status,
		SellerID: listing.SellerID,
	}
}

// formatValidationError форматирует ошибки валидации
func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fieldError := validationErrors[0]
		return fieldError.Field() + " is " + fieldError.Tag()
	}
	return "Validation failed"
}
