package controllers

import (
	"net/http"

	"github.com/Lerfilm/opendrama-sub004/application/ports/inbound"
	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/infrastructure/gin_interface/dto"
	"github.com/Lerfilm/opendrama-sub004/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LedgerController interface {
	GetBalance(c *gin.Context)
	GrantTokens(c *gin.Context)
	RegisterRoutes(g *gin.Engine)
}

type ledgerController struct {
	logger outbound.LoggerPort
	ledger inbound.TokenLedgerPort
}

func NewLedgerController(logger outbound.LoggerPort, ledger inbound.TokenLedgerPort) LedgerController {
	return &ledgerController{
		logger: logger,
		ledger: ledger,
	}
}

func (l *ledgerController) GetBalance(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)

	available, err := l.ledger.GetAvailableBalance(c.Request.Context(), userID)
	if err != nil {
		l.logger.Error(err, "failed to read available balance")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		UserID:    userID,
		Available: available,
	})
}

func (l *ledgerController) GrantTokens(c *gin.Context) {
	var req dto.GrantTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := l.ledger.AddTokens(c.Request.Context(), req.UserID, req.Amount, req.Source, inbound.OperationMeta{
		Ref:         "grant-" + uuid.NewString(),
		Description: req.Reason,
	})
	if err != nil {
		l.logger.Error(err, "failed to grant tokens")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (l *ledgerController) RegisterRoutes(r *gin.Engine) {
	r.GET("/tokens/balance", l.GetBalance)
	r.POST("/tokens/grant", l.GrantTokens)
}
