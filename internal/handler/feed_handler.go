package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tms-allocation-api/internal/models"
	"github.com/noah-isme/tms-allocation-api/internal/service"
	appErrors "github.com/noah-isme/tms-allocation-api/pkg/errors"
	"github.com/noah-isme/tms-allocation-api/pkg/response"
)

// FeedHandler exposes the global assignment feed.
type FeedHandler struct {
	feed *service.FeedService
}

// NewFeedHandler constructs a FeedHandler.
func NewFeedHandler(feed *service.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// Snapshot godoc
// @Summary Get the current feed snapshot
// @Tags Feed
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /feed [get]
func (h *FeedHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.feed.Snapshot(), nil)
}

// Refresh godoc
// @Summary Reload the feed from the backing store
// @Tags Feed
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /feed/refresh [post]
func (h *FeedHandler) Refresh(c *gin.Context) {
	if err := h.feed.Refresh(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"version": h.feed.Version()}, nil)
}

// Replace godoc
// @Summary Replace the feed wholesale with a pushed payload
// @Tags Feed
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /feed [put]
func (h *FeedHandler) Replace(c *gin.Context) {
	var records []models.GlobalAssignmentRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feed payload"))
		return
	}
	h.feed.Replace(records)
	response.JSON(c, http.StatusOK, gin.H{"version": h.feed.Version(), "records": len(records)}, nil)
}
