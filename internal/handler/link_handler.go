package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
)

type LinkService interface {
	CreateShortLink(ctx context.Context, req *model.ShortenRequest, requestBase string) (*model.ShortenResponse, error)
	GetStats(ctx context.Context, code string) (*model.StatsResponse, error)
	Resolve(ctx context.Context, code string) (string, error)
}

type LinkHandler struct {
	linkService LinkService
	logger      *zap.Logger
}

func NewLinkHandler(linkService LinkService, logger *zap.Logger) *LinkHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkHandler{
		linkService: linkService,
		logger:      logger,
	}
}

func (h *LinkHandler) Shorten(c *gin.Context) {
	var req model.ShortenRequest
	// Content-Type picks JSON or form binding.
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	response, err := h.linkService.CreateShortLink(c.Request.Context(), &req, requestBase(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *LinkHandler) Stats(c *gin.Context) {
	response, err := h.linkService.GetStats(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *LinkHandler) Redirect(c *gin.Context) {
	target, err := h.linkService.Resolve(c.Request.Context(), c.Param("code"))
	if errors.Is(err, apperrors.ErrLinkNotFound) {
		c.String(http.StatusNotFound, "Short URL not found")
		return
	}
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Redirect(http.StatusFound, target)
}

// handleError maps service errors onto HTTP statuses.
func (h *LinkHandler) handleError(c *gin.Context, err error) {
	if apperrors.IsValidationError(err) {
		validationErr := apperrors.GetValidationError(err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": validationErr.Message,
			"field":   validationErr.Field,
		})
		return
	}

	if errors.Is(err, apperrors.ErrLinkNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Not found",
		})
		return
	}

	if errors.Is(err, apperrors.ErrCodeTaken) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "conflict",
			"message": "Code already in use",
		})
		return
	}

	if apperrors.IsBusinessError(err) {
		businessErr := apperrors.GetBusinessError(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   strings.ToLower(businessErr.Code),
			"message": businessErr.Message,
			"code":    businessErr.Code,
		})
		return
	}

	h.logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))

	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": "An unexpected error occurred",
	})
}

// requestBase returns "<scheme>://<host>" as seen by the client, trusting
// X-Forwarded-* headers set by a fronting proxy.
func requestBase(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}

	host := c.Request.Host
	if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}

	return scheme + "://" + host
}
