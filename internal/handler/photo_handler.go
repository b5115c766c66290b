package handler

import (
	"errors"
	"net/http"

	"poker-coach/internal/models"
	"poker-coach/internal/photocache"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PhotoHandler отдает последний снимок владельца. По этим адресам снимок
// забирает детектор карт.
type PhotoHandler struct {
	photos     photocache.Cache
	demoUserID string
	logger     *zap.Logger
}

func NewPhotoHandler(photos photocache.Cache, demoUserID string, logger *zap.Logger) *PhotoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhotoHandler{photos: photos, demoUserID: demoUserID, logger: logger.Named("PhotoHandler")}
}

// RegisterRoutes регистрирует маршруты фото.
func (h *PhotoHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")
	api.GET("/photo/:requestId", h.GetPhoto)
	api.GET("/latest-photo", h.GetLatestPhoto)
}

func (h *PhotoHandler) owner(c *gin.Context) string {
	if userID := c.Query("userId"); userID != "" {
		return userID
	}
	return h.demoUserID
}

// GetPhoto handles GET /api/photo/:requestId. Only the latest photo of the
// owner is served, older request ids get 404.
func (h *PhotoHandler) GetPhoto(c *gin.Context) {
	ownerID := h.owner(c)
	photo, err := h.photos.GetByRequestID(c.Request.Context(), ownerID, c.Param("requestId"))
	if err != nil {
		h.fail(c, err, "Photo not found", zap.String("ownerID", ownerID), zap.String("requestID", c.Param("requestId")))
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, photo.MimeType, photo.Data)
}

type latestPhotoResponse struct {
	RequestID string `json:"requestId"`
	Timestamp int64  `json:"timestamp"`
	HasPhoto  bool   `json:"hasPhoto"`
}

// GetLatestPhoto handles GET /api/latest-photo.
func (h *PhotoHandler) GetLatestPhoto(c *gin.Context) {
	ownerID := h.owner(c)
	photo, err := h.photos.Get(c.Request.Context(), ownerID)
	if err != nil {
		h.fail(c, err, "No photo available", zap.String("ownerID", ownerID))
		return
	}
	c.JSON(http.StatusOK, latestPhotoResponse{
		RequestID: photo.RequestID,
		Timestamp: photo.CapturedAt.UnixMilli(),
		HasPhoto:  true,
	})
}

func (h *PhotoHandler) fail(c *gin.Context, err error, notFound string, fields ...zap.Field) {
	if errors.Is(err, models.ErrPhotoNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return
	}
	h.logger.Error("Photo cache lookup failed", append(fields, zap.Error(err))...)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
