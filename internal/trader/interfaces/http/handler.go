// Package http 交易者服务 HTTP 接口
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/cryptotrading/internal/trader/application"
	"github.com/wyfcoding/cryptotrading/internal/trader/domain"
)

type Handler struct {
	service *application.TraderService
}

func NewHandler(service *application.TraderService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/traders")
	{
		g.POST("", h.CreateTrader)
		g.POST("/:id/candles", h.AddCandle)
		g.GET("/:id", h.GetTrader)
		g.GET("/:id/balance", h.GetBalance)
		g.GET("/:id/moving-averages", h.GetMovingAverages)
		g.GET("/by-asset/:asset", h.ListByBaseAsset)
	}
}

type CreateTraderReq struct {
	BaseAsset      string `json:"base_asset" binding:"required"`
	QuoteAsset     string `json:"quote_asset" binding:"required"`
	BaseBalance    string `json:"base_balance" binding:"required"`
	QuoteBalance   string `json:"quote_balance" binding:"required"`
	MAKind         string `json:"ma_kind" binding:"required"`
	ShortPeriod    int    `json:"short_period" binding:"required"`
	LongPeriod     int    `json:"long_period" binding:"required"`
	OrderThreshold string `json:"order_threshold" binding:"required"`
}

func (h *Handler) CreateTrader(c *gin.Context) {
	var req CreateTraderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	baseBalance, err := decimal.NewFromString(req.BaseBalance)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid base_balance"})
		return
	}
	quoteBalance, err := decimal.NewFromString(req.QuoteBalance)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote_balance"})
		return
	}
	threshold, err := decimal.NewFromString(req.OrderThreshold)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order_threshold"})
		return
	}

	dto, err := h.service.Commands.CreateTrader(c.Request.Context(), application.CreateTraderCommand{
		BaseAsset:      req.BaseAsset,
		QuoteAsset:     req.QuoteAsset,
		BaseBalance:    baseBalance,
		QuoteBalance:   quoteBalance,
		MAKind:         req.MAKind,
		ShortPeriod:    req.ShortPeriod,
		LongPeriod:     req.LongPeriod,
		OrderThreshold: threshold,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrUnsupportedMovingAverageKind) ||
			errors.Is(err, domain.ErrInvalidPeriod) ||
			errors.Is(err, domain.ErrInvalidPeriodOrder) ||
			errors.Is(err, domain.ErrNegativeBalance) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto)
}

type AddCandleReq struct {
	ClosingPrice string `json:"closing_price" binding:"required"`
	Time         int64  `json:"time"`
}

// AddCandle accepts a candle and answers 202: a candle that triggers no order
// is still a successful command, placed=false lets the caller see that nothing
// happened.
func (h *Handler) AddCandle(c *gin.Context) {
	var req AddCandleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, err := decimal.NewFromString(req.ClosingPrice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid closing_price"})
		return
	}

	result, err := h.service.Commands.AddCandle(c.Request.Context(), application.AddCandleCommand{
		TraderID:     c.Param("id"),
		ClosingPrice: price,
		Time:         req.Time,
	})
	if err != nil {
		if errors.Is(err, domain.ErrTraderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"placed": result.OrderPlaced}
	if result.Order != nil {
		resp["order"] = result.Order
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *Handler) GetTrader(c *gin.Context) {
	dto, err := h.service.Queries.GetTrader(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) GetBalance(c *gin.Context) {
	view, err := h.service.Queries.GetBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) GetMovingAverages(c *gin.Context) {
	view, err := h.service.Queries.GetMovingAverages(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) ListByBaseAsset(c *gin.Context) {
	list, err := h.service.Queries.ListTradersByBaseAsset(c.Request.Context(), c.Param("asset"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) renderQueryError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrTraderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
