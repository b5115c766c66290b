package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/photo_viewer.html
var templatesFS embed.FS

var photoViewer = template.Must(template.ParseFS(templatesFS, "templates/photo_viewer.html"))

const webviewPollMillis = 2000

// WebviewHandler отдает страницу предпросмотра последнего снимка.
type WebviewHandler struct {
	demoUserID string
	logger     *zap.Logger
}

func NewWebviewHandler(demoUserID string, logger *zap.Logger) *WebviewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebviewHandler{demoUserID: demoUserID, logger: logger.Named("WebviewHandler")}
}

func (h *WebviewHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/webview", h.Show)
}

// Show handles GET /webview[?userId=].
func (h *WebviewHandler) Show(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		userID = h.demoUserID
	}

	var buf bytes.Buffer
	err := photoViewer.Execute(&buf, struct {
		UserID     string
		PollMillis int
	}{UserID: userID, PollMillis: webviewPollMillis})
	if err != nil {
		h.logger.Error("Failed to render webview", zap.Error(err))
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
