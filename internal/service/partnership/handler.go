package partnership

import (
	"context"
	"errors"
	"net/http"

	"goalpact/internal/result"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RequestPartnership handles POST /partnerships/request
func (h *Handler) RequestPartnership(c *gin.Context) {
	var req RequestPartnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	res := h.service.Request(c.Request.Context(), userID.(string), req.PartnerID, req.PartnershipType)
	c.JSON(result.HTTPStatus(res, http.StatusCreated), res)
}

// GetCurrent handles GET /partnerships/current
func (h *Handler) GetCurrent(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	p, err := h.service.GetForUser(c.Request.Context(), userID.(string))
	if err != nil {
		if errors.Is(err, ErrPartnershipNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, p)
}

// Accept handles POST /partnerships/:id/accept
func (h *Handler) Accept(c *gin.Context) {
	h.transition(c, h.service.Accept)
}

// Decline handles POST /partnerships/:id/decline
func (h *Handler) Decline(c *gin.Context) {
	h.transition(c, h.service.Decline)
}

// Pause handles POST /partnerships/:id/pause
func (h *Handler) Pause(c *gin.Context) {
	h.transition(c, h.service.Pause)
}

// Resume handles POST /partnerships/:id/resume
func (h *Handler) Resume(c *gin.Context) {
	h.transition(c, h.service.Resume)
}

// End handles POST /partnerships/:id/end
func (h *Handler) End(c *gin.Context) {
	partnershipID := c.Param("id")

	var req EndPartnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	res := h.service.End(c.Request.Context(), partnershipID, userID.(string), req.Reason)
	c.JSON(result.HTTPStatus(res, http.StatusOK), res)
}

func (h *Handler) transition(c *gin.Context, op func(ctx context.Context, partnershipID, userID string) *result.Result) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	res := op(c.Request.Context(), c.Param("id"), userID.(string))
	c.JSON(result.HTTPStatus(res, http.StatusOK), res)
}
