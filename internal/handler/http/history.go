package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pixel-frame/internal/repository"
)

// HistoryHandler 提供像素放置历史的查询
type HistoryHandler struct {
	placementRepo repository.PlacementRepository
}

func NewHistoryHandler(placementRepo repository.PlacementRepository) *HistoryHandler {
	return &HistoryHandler{placementRepo: placementRepo}
}

// PlacementCountResponse 是放置计数的响应结构体
type PlacementCountResponse struct {
	Since string `json:"since,omitempty"`
	Count int64  `json:"count"`
}

// PlacementCount 处理 GET /api/history/count?since=RFC3339
func (h *HistoryHandler) PlacementCount(c *gin.Context) {
	var since time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid since: expected RFC3339 timestamp")
			return
		}
		since = parsed
	}

	count, err := h.placementRepo.CountSince(c.Request.Context(), since)
	if err != nil {
		logrus.WithError(err).Error("Handler.PlacementCount: Failed to count placements")
		ErrorResponse(c, http.StatusInternalServerError, "Failed to count placements")
		return
	}

	resp := PlacementCountResponse{Count: count}
	if !since.IsZero() {
		resp.Since = since.UTC().Format(time.RFC3339)
	}
	SuccessResponse(c, http.StatusOK, resp)
}
