// Package http 期权系列服务接口
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/quantfabric/optionvault/internal/series/application"
	"github.com/quantfabric/optionvault/internal/series/domain"
	"github.com/quantfabric/optionvault/internal/token"
)

type Handler struct {
	commands *application.SeriesService
	queries  *application.SeriesQueryService
}

func NewHandler(commands *application.SeriesService, queries *application.SeriesQueryService) *Handler {
	return &Handler{commands: commands, queries: queries}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/series")
	{
		g.POST("", h.CreateSeries)
		g.GET("", h.ListSeries)
		g.GET("/:id", h.GetSeries)
		g.GET("/:id/expired", h.HasExpired)
		g.GET("/:id/locked/:account", h.LockedBalance)
		g.GET("/:id/options/:account", h.OptionBalance)
		g.GET("/:id/exercises", h.ListExercises)
		g.GET("/:id/withdrawals", h.ListWithdrawals)
		g.POST("/:id/mint", h.Mint)
		g.POST("/:id/burn", h.Burn)
		g.POST("/:id/exercise", h.Exercise)
		g.POST("/:id/withdraw", h.Withdraw)
		g.POST("/:id/expire", h.ForceExpiration)
	}
}

type CreateSeriesReq struct {
	Name               string `json:"name" binding:"required"`
	Symbol             string `json:"symbol" binding:"required"`
	Variant            string `json:"variant" binding:"required"`
	Owner              string `json:"owner" binding:"required"`
	UnderlyingAsset    string `json:"underlying_asset" binding:"required"`
	StrikeAsset        string `json:"strike_asset" binding:"required"`
	StrikePrice        string `json:"strike_price" binding:"required"`
	PriceDecimals      int32  `json:"price_decimals"`
	UnderlyingDecimals int32  `json:"underlying_decimals"`
	StrikeDecimals     int32  `json:"strike_decimals"`
	ExpiresAt          string `json:"expires_at"`
	TestMode           bool   `json:"test_mode"`
}

func (h *Handler) CreateSeries(c *gin.Context) {
	var req CreateSeriesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	strikePrice, err := decimal.NewFromString(req.StrikePrice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid strike_price"})
		return
	}
	var expiresAt time.Time
	if req.ExpiresAt != "" {
		expiresAt, err = time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expires_at"})
			return
		}
	}

	cmd := application.CreateSeriesCmd{
		Name:               req.Name,
		Symbol:             req.Symbol,
		Variant:            domain.OptionVariant(req.Variant),
		Owner:              req.Owner,
		UnderlyingAsset:    req.UnderlyingAsset,
		StrikeAsset:        req.StrikeAsset,
		StrikePrice:        strikePrice,
		PriceDecimals:      req.PriceDecimals,
		UnderlyingDecimals: req.UnderlyingDecimals,
		StrikeDecimals:     req.StrikeDecimals,
		ExpiresAt:          expiresAt,
		TestMode:           req.TestMode,
	}
	id, err := h.commands.CreateSeries(c.Request.Context(), cmd)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"series_id": id})
}

type MintReq struct {
	Writer string `json:"writer" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

func (h *Handler) Mint(c *gin.Context) {
	var req MintReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	cmd := application.MintCmd{
		SeriesID: c.Param("id"),
		Writer:   req.Writer,
		Amount:   amount,
	}
	if err := h.commands.Mint(c.Request.Context(), cmd); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

type BurnReq struct {
	Writer string `json:"writer" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

func (h *Handler) Burn(c *gin.Context) {
	var req BurnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	cmd := application.BurnCmd{
		SeriesID: c.Param("id"),
		Writer:   req.Writer,
		Amount:   amount,
	}
	if err := h.commands.Burn(c.Request.Context(), cmd); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

type ExerciseReq struct {
	Exerciser string `json:"exerciser" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Payment   string `json:"payment" binding:"required"`
}

func (h *Handler) Exercise(c *gin.Context) {
	var req ExerciseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	payment, err := decimal.NewFromString(req.Payment)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment"})
		return
	}
	cmd := application.ExerciseCmd{
		SeriesID:  c.Param("id"),
		Exerciser: req.Exerciser,
		Amount:    amount,
		Payment:   payment,
	}
	if err := h.commands.Exercise(c.Request.Context(), cmd); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

type WithdrawReq struct {
	Account string `json:"account" binding:"required"`
}

func (h *Handler) Withdraw(c *gin.Context) {
	var req WithdrawReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := application.WithdrawCmd{
		SeriesID: c.Param("id"),
		Account:  req.Account,
	}
	if err := h.commands.Withdraw(c.Request.Context(), cmd); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

type ForceExpirationReq struct {
	Caller string `json:"caller" binding:"required"`
}

func (h *Handler) ForceExpiration(c *gin.Context) {
	var req ForceExpirationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.commands.ForceExpiration(c.Request.Context(), c.Param("id"), req.Caller); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) GetSeries(c *gin.Context) {
	dto, err := h.queries.GetSeries(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) ListSeries(c *gin.Context) {
	limit, offset := pagination(c)
	list, total, err := h.queries.ListSeries(c.Request.Context(), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "series": list})
}

func (h *Handler) HasExpired(c *gin.Context) {
	expired, err := h.queries.HasExpired(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": expired})
}

func (h *Handler) LockedBalance(c *gin.Context) {
	balance, err := h.queries.LockedBalance(c.Request.Context(), c.Param("id"), c.Param("account"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locked_balance": balance})
}

func (h *Handler) OptionBalance(c *gin.Context) {
	balance, err := h.queries.OptionBalance(c.Request.Context(), c.Param("id"), c.Param("account"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"option_balance": balance})
}

func (h *Handler) ListExercises(c *gin.Context) {
	limit, offset := pagination(c)
	list, total, err := h.queries.ListExercises(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "exercises": list})
}

func (h *Handler) ListWithdrawals(c *gin.Context) {
	limit, offset := pagination(c)
	list, total, err := h.queries.ListWithdrawals(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "withdrawals": list})
}

func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// writeError 领域错误到 HTTP 状态码的映射
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSeriesNotFound), errors.Is(err, token.ErrUnknownAsset):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSeriesExpired),
		errors.Is(err, domain.ErrSeriesNotExpired),
		errors.Is(err, token.ErrAssetExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotSeriesOwner), errors.Is(err, domain.ErrNotTestMode):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidSeriesConfig),
		errors.Is(err, domain.ErrIncorrectPaymentAmount),
		errors.Is(err, domain.ErrInsufficientTokenBalance),
		errors.Is(err, domain.ErrInsufficientLockedBalance),
		errors.Is(err, domain.ErrNothingToWithdraw),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance),
		errors.Is(err, token.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
