package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flicky/storefront-api/internal/logger"
	"github.com/flicky/storefront-api/internal/payment"
	"github.com/flicky/storefront-api/internal/service"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrInvalidQuantity, http.StatusBadRequest},
	{service.ErrEmptyCart, http.StatusBadRequest},
	{service.ErrInvalidSignature, http.StatusBadRequest},
	{service.ErrGatewayOrderMismatch, http.StatusBadRequest},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrOrderAccessDenied, http.StatusForbidden},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrCategoryNotFound, http.StatusNotFound},
	{service.ErrProductNotFound, http.StatusNotFound},
	{service.ErrCartItemNotFound, http.StatusNotFound},
	{service.ErrOrderNotFound, http.StatusNotFound},
	{service.ErrTransactionNotFound, http.StatusNotFound},
	{service.ErrUserAlreadyExists, http.StatusConflict},
	{service.ErrCategoryExists, http.StatusConflict},
	{service.ErrProductExists, http.StatusConflict},
	{service.ErrOrderNotPending, http.StatusConflict},
	{service.ErrInsufficientStock, http.StatusConflict},
	{service.ErrUserHasHistory, http.StatusConflict},
}

// respondError maps service errors to a status and writes {"error": msg}.
// Unknown errors are logged and hidden behind a 500.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			msg := e.err.Error()
			if e.err == service.ErrInvalidInput {
				msg = err.Error()
			}
			c.JSON(e.status, gin.H{"error": msg})
			return
		}
	}

	if errors.Is(err, payment.ErrGateway) {
		logger.FromContext(c, log).Error("payment gateway call failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable"})
		return
	}

	logger.FromContext(c, log).Error("request failed",
		zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func parseID(c *gin.Context, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + what + " ID"})
		return uuid.Nil, false
	}
	return id, true
}
