package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/config"
	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/internal/repository"
	"github.com/arthurando/fafa-shopify-v2/internal/service"
	"github.com/arthurando/fafa-shopify-v2/internal/shopify"
	"github.com/arthurando/fafa-shopify-v2/pkg/errors"
)

// CreateSetRequest represents a new product set
type CreateSetRequest struct {
	Name          string           `json:"name" binding:"required,min=1,max=100"`
	Prefix        string           `json:"prefix" binding:"required,min=1,max=10"`
	Price         decimal.Decimal  `json:"price" binding:"required"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Cost          *decimal.Decimal `json:"cost,omitempty"`
}

// UpdateSetRequest represents a partial set update
type UpdateSetRequest struct {
	Name          *string          `json:"name,omitempty"`
	Prefix        *string          `json:"prefix,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Cost          *decimal.Decimal `json:"cost,omitempty"`
	IsArchived    *bool            `json:"is_archived,omitempty"`
}

// SyncSetRequest carries an optional prefix change to propagate
type SyncSetRequest struct {
	OldPrefix string `json:"old_prefix"`
	NewPrefix string `json:"new_prefix"`
}

// HandleListSets handles GET /v1/sets
func HandleListSets(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sets, err := repos.ProductSet.List(c.Request.Context())
		if err != nil {
			logger.Error("Failed to list sets", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": setResponses(sets)})
	}
}

// HandleCreateSet handles POST /v1/sets
func HandleCreateSet(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}

		prefix := strings.ToUpper(strings.TrimSpace(req.Prefix))
		if !req.Price.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "price must be positive"})
			return
		}
		if req.OriginalPrice != nil && !req.OriginalPrice.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "original_price must be positive"})
			return
		}
		if req.Cost != nil && req.Cost.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "cost must not be negative"})
			return
		}

		set := &domain.ProductSet{
			Name:          req.Name,
			Prefix:        prefix,
			Price:         req.Price,
			OriginalPrice: req.OriginalPrice,
			Cost:          req.Cost,
		}

		if err := repos.ProductSet.Create(c.Request.Context(), set); err != nil {
			if _, ok := err.(*errors.ErrConflict); ok {
				c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
				return
			}
			logger.Error("Failed to create set", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": setResponse(set)})
	}
}

// HandleUpdateSet handles PATCH /v1/sets/:id
func HandleUpdateSet(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid set ID"})
			return
		}

		var req UpdateSetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		if req.Prefix != nil && *req.Prefix != strings.ToUpper(*req.Prefix) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "prefix must be uppercase"})
			return
		}
		if req.Price != nil && !req.Price.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "price must be positive"})
			return
		}

		set, err := repos.ProductSet.GetByID(c.Request.Context(), id)
		if err != nil {
			respondRepoError(c, logger, err, "Failed to get set")
			return
		}

		if req.Name != nil {
			set.Name = *req.Name
		}
		if req.Prefix != nil {
			set.Prefix = *req.Prefix
		}
		if req.Price != nil {
			set.Price = *req.Price
		}
		if req.OriginalPrice != nil {
			set.OriginalPrice = req.OriginalPrice
		}
		if req.Cost != nil {
			set.Cost = req.Cost
		}
		if req.IsArchived != nil {
			set.IsArchived = *req.IsArchived
		}

		if err := repos.ProductSet.Update(c.Request.Context(), set); err != nil {
			if _, ok := err.(*errors.ErrConflict); ok {
				c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
				return
			}
			respondRepoError(c, logger, err, "Failed to update set")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": setResponse(set)})
	}
}

// HandleArchiveSet handles DELETE /v1/sets/:id. Archiving frees the prefix for
// a future set; the set's products are untouched.
func HandleArchiveSet(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid set ID"})
			return
		}

		if err := repos.ProductSet.Archive(c.Request.Context(), id); err != nil {
			respondRepoError(c, logger, err, "Failed to archive set")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// HandleSetMargin handles GET /v1/sets/:id/margin. Optional shipping, customs
// and exchange_rate query parameters feed the landed cost; they default to
// 0, 0 and 1 so the plain call prices against the raw cost.
func HandleSetMargin(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid set ID"})
			return
		}

		shipping, err := decimalQuery(c, "shipping", decimal.Zero)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid shipping"})
			return
		}
		customs, err := decimalQuery(c, "customs", decimal.Zero)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid customs"})
			return
		}
		exchangeRate, err := decimalQuery(c, "exchange_rate", decimal.NewFromInt(1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid exchange_rate"})
			return
		}

		set, err := repos.ProductSet.GetByID(c.Request.Context(), id)
		if err != nil {
			respondRepoError(c, logger, err, "Failed to get set")
			return
		}
		if set.Cost == nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "set has no cost"})
			return
		}

		landed := domain.LandedCost(*set.Cost, shipping, customs, exchangeRate)
		margin := domain.CalculateMargin(set.Price, landed)

		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
			"price":       set.Price,
			"landed_cost": landed,
			"margin":      margin.Amount,
			"margin_pct":  margin.Percentage,
		}})
	}
}

func decimalQuery(c *gin.Context, name string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return decimal.NewFromString(raw)
}

// HandleNextCode handles GET /v1/sets/:id/next-code.
// The preview reads the stored sequence without reserving it; a concurrent
// allocation can still claim the shown number first.
func HandleNextCode(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid set ID"})
			return
		}

		set, err := repos.ProductSet.GetByID(c.Request.Context(), id)
		if err != nil {
			respondRepoError(c, logger, err, "Failed to get set")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"next_code": service.PreviewNextCode(set.Prefix, set.LastSequence)},
		})
	}
}

// HandleSyncSet handles POST /v1/sets/:id/sync
func HandleSyncSet(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid set ID"})
			return
		}

		var req SyncSetRequest
		if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}

		products := service.NewProductService(cfg, repos, client, nil, logger)
		result, err := products.SyncSet(c.Request.Context(), id, req.OldPrefix, req.NewPrefix)
		if err != nil {
			respondRepoError(c, logger, err, "Failed to sync set")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
	}
}

func setResponses(sets []*domain.ProductSet) []gin.H {
	out := make([]gin.H, len(sets))
	for i, set := range sets {
		out[i] = setResponse(set)
		out[i]["product_count"] = set.ProductCount
	}
	return out
}

func setResponse(set *domain.ProductSet) gin.H {
	resp := gin.H{
		"id":             set.ID.String(),
		"name":           set.Name,
		"prefix":         set.Prefix,
		"price":          set.Price,
		"original_price": set.OriginalPrice,
		"cost":           set.Cost,
		"last_sequence":  set.LastSequence,
		"is_archived":    set.IsArchived,
		"created_at":     set.CreatedAt,
		"updated_at":     set.UpdatedAt,
	}
	if set.Cost != nil {
		margin := domain.CalculateMargin(set.Price, *set.Cost)
		resp["margin"] = margin.Amount
		resp["margin_pct"] = margin.Percentage
	}
	return resp
}

func respondRepoError(c *gin.Context, logger *zap.Logger, err error, logMsg string) {
	switch err.(type) {
	case *errors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	case *errors.ErrValidation:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		logger.Error(logMsg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
	}
}
