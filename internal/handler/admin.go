package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/middleware"
)

type TransactionService interface {
	List(ctx context.Context, p dto.Pagination) (*dto.TransactionListResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.TransactionResponse, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) (*dto.TransactionListResponse, error)
}

type TransactionHandler struct {
	svc TransactionService
	log *zap.Logger
}

func NewTransactionHandler(svc TransactionService, log *zap.Logger) *TransactionHandler {
	return &TransactionHandler{svc: svc, log: log}
}

func (h *TransactionHandler) List(c *gin.Context) {
	var p dto.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.svc.List(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "transaction")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TransactionHandler) Mine(c *gin.Context) {
	resp, err := h.svc.ListByUserID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type ActivityLogService interface {
	Create(ctx context.Context, actor uuid.UUID, req dto.CreateLogRequest) (*dto.LogResponse, error)
	List(ctx context.Context, req dto.ListLogsRequest) (*dto.LogListResponse, error)
}

type LogHandler struct {
	svc ActivityLogService
	log *zap.Logger
}

func NewLogHandler(svc ActivityLogService, log *zap.Logger) *LogHandler {
	return &LogHandler{svc: svc, log: log}
}

func (h *LogHandler) List(c *gin.Context) {
	var req dto.ListLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.svc.List(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LogHandler) Create(c *gin.Context) {
	var req dto.CreateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

type ContactService interface {
	Submit(ctx context.Context, req dto.ContactRequest) (*dto.ContactResponse, error)
	List(ctx context.Context, p dto.Pagination) (*dto.ContactListResponse, error)
}

type ContactHandler struct {
	svc ContactService
	log *zap.Logger
}

func NewContactHandler(svc ContactService, log *zap.Logger) *ContactHandler {
	return &ContactHandler{svc: svc, log: log}
}

func (h *ContactHandler) Submit(c *gin.Context) {
	var req dto.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ContactHandler) List(c *gin.Context) {
	var p dto.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.svc.List(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
