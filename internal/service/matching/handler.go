package matching

import (
	"errors"
	"net/http"

	"goalpact/internal/result"
	"goalpact/internal/service/preference"

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

// FindCandidates handles GET /matching/candidates
func (h *Handler) FindCandidates(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var criteria Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Browse mode when no filter is supplied at all.
	var filter *Criteria
	if criteria.PartnerType != "" || criteria.TimeCommitment != "" ||
		len(criteria.Categories) > 0 || len(criteria.SupportStyles) > 0 {
		filter = &criteria
	}

	candidates, err := h.service.FindCandidates(c.Request.Context(), userID.(string), filter, true)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"candidates": candidates,
		"total":      len(candidates),
	})
}

// FindPartner handles POST /matching/find
func (h *Handler) FindPartner(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	res := h.service.FindAndCreatePartnership(c.Request.Context(), userID.(string))
	c.JSON(result.HTTPStatus(res, http.StatusCreated), res)
}

// handleError maps domain errors to HTTP status codes
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, preference.ErrPreferencesNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, preference.ErrNotAvailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNoMatches), errors.Is(err, ErrLowCompatibility):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
