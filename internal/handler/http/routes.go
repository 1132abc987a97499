package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册帧页面模板和所有 HTTP 路由。history 为 nil 时不暴露历史接口。
func RegisterRoutes(router *gin.Engine, frame *FrameHandler, history *HistoryHandler, apiMiddleware ...gin.HandlerFunc) {
	router.SetHTMLTemplate(framePage)

	api := router.Group("/api", apiMiddleware...)
	{
		api.GET("/frame", frame.Frame)
		api.POST("/frame", frame.Frame)
		api.GET("/canvas", frame.CanvasState)
		api.GET("/canvas.png", frame.CanvasPNG)
		api.PUT("/canvas/pixel", frame.SetPixel)
	}
	if history != nil {
		api.GET("/history/count", history.PlacementCount)
	}
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
}
