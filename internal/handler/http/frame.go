package http

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pixel-frame/internal/domain"
	"pixel-frame/internal/service"
	"pixel-frame/internal/tasks"
)

// TaskEnqueuer 是 asynq.Client 中 Handler 用到的部分
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// frameTemplateName 是帧页面在 gin HTML 渲染器中的模板名
const frameTemplateName = "frame"

var framePage = template.Must(template.New(frameTemplateName).Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html><html><head>
<meta property="og:title" content="{{.Title}}" />
<meta property="og:image" content="{{.ImageDataURL}}" />
<meta property="fc:frame" content="vNext" />
<meta property="fc:frame:image" content="{{.ImageDataURL}}" />
<meta property="fc:frame:input:text" content="{{.InputHint}}" />
{{range $i, $label := .Buttons}}<meta property="fc:frame:button:{{inc $i}}" content="{{$label}}" />
{{end}}{{if .State}}<meta property="fc:frame:state" content="{{.State}}" />
{{end}}<meta property="fc:frame:post_url" content="{{.PostURL}}" />
</head><body>Farcaster Frame Canvas</body></html>
`))

// FrameHandler 封装了帧和画布相关的 HTTP 处理逻辑
type FrameHandler struct {
	frameService *service.FrameService
	renderer     *service.Renderer
	queue        TaskEnqueuer // 为 nil 时不记录放置历史
}

// NewFrameHandler 创建 FrameHandler 实例
func NewFrameHandler(frameService *service.FrameService, renderer *service.Renderer, queue TaskEnqueuer) *FrameHandler {
	return &FrameHandler{frameService: frameService, renderer: renderer, queue: queue}
}

// FrameRequest 是帧回调的请求体, 只使用 untrustedData
type FrameRequest struct {
	UntrustedData service.FrameAction `json:"untrustedData"`
}

// Frame 处理 GET/POST /api/frame, 返回带有画布图片的帧 HTML
func (h *FrameHandler) Frame(c *gin.Context) {
	var req FrameRequest
	if c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			// 无法解析的回调按刷新处理
			logrus.WithError(err).Warn("Handler.Frame: Invalid frame payload, treating as refresh")
			req = FrameRequest{}
		}
	}

	result, err := h.frameService.Handle(c.Request.Context(), req.UntrustedData)
	if err != nil {
		logrus.WithError(err).Error("Handler.Frame: Error generating frame")
		c.String(http.StatusInternalServerError, "Error generating frame: %s", err.Error())
		return
	}

	if result.Placement != nil {
		h.recordPlacement(c.Request.Context(), *result.Placement)
	}

	c.HTML(http.StatusOK, frameTemplateName, result.Page)
}

// CanvasPNG 处理 GET /api/canvas.png, 直接返回渲染后的 PNG
func (h *FrameHandler) CanvasPNG(c *gin.Context) {
	grid := h.frameService.Store().Load(c.Request.Context())
	png, err := h.renderer.Render(grid, h.frameService.CellSize())
	if err != nil {
		logrus.WithError(err).Error("Handler.CanvasPNG: Failed to render canvas")
		ErrorResponse(c, http.StatusInternalServerError, "Failed to render canvas")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// CanvasStateResponse 是 GET /api/canvas 的响应结构体
type CanvasStateResponse struct {
	Outcome string     `json:"outcome"`
	Size    int        `json:"size"`
	Grid    [][]string `json:"grid"`
}

// CanvasState 处理 GET /api/canvas, 返回当前网格和加载来源
func (h *FrameHandler) CanvasState(c *gin.Context) {
	result := h.frameService.Store().LoadResult(c.Request.Context())
	SuccessResponse(c, http.StatusOK, CanvasStateResponse{
		Outcome: result.Outcome.String(),
		Size:    domain.CanvasSize,
		Grid:    gridRows(result.Grid),
	})
}

// SetPixelRequest 定义放置像素请求的结构体
type SetPixelRequest struct {
	Row   *int   `json:"row" binding:"required"`
	Col   *int   `json:"col" binding:"required"`
	Color string `json:"color" binding:"required"`
	Fid   uint64 `json:"fid"`
}

// SetPixel 处理 PUT /api/canvas/pixel
func (h *FrameHandler) SetPixel(c *gin.Context) {
	var req SetPixelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.SetPixel: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: row, col and color are required")
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"row": *req.Row, "col": *req.Col, "color": req.Color})

	grid, err := h.frameService.Store().SetPixel(c.Request.Context(), *req.Row, *req.Col, req.Color)
	if err != nil {
		logCtx.WithError(err).Warn("Handler.SetPixel: Failed to place pixel")
		HandleServiceError(c, err)
		return
	}

	placed := grid[*req.Row][*req.Col]
	h.recordPlacement(c.Request.Context(), domain.Placement{
		Row:      *req.Row,
		Col:      *req.Col,
		Color:    string(placed),
		Fid:      req.Fid,
		PlacedAt: time.Now().UTC(),
	})
	logCtx.Info("Handler.SetPixel: Pixel placed")
	SuccessResponse(c, http.StatusOK, CanvasStateResponse{
		Outcome: service.OutcomeValid.String(),
		Size:    domain.CanvasSize,
		Grid:    gridRows(grid),
	})
}

// recordPlacement 投递放置历史任务, 失败只记录日志
func (h *FrameHandler) recordPlacement(ctx context.Context, p domain.Placement) {
	if h.queue == nil {
		return
	}
	payload, err := tasks.NewPlacementPersistenceTask(p)
	if err != nil {
		logrus.WithError(err).Error("Failed to build placement persistence task")
		return
	}
	task := asynq.NewTask(tasks.TypePlacementPersistence, payload)
	if _, err := h.queue.EnqueueContext(ctx, task, asynq.Queue("default"), asynq.MaxRetry(5)); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"row": p.Row, "col": p.Col}).Warn("Failed to enqueue placement persistence task")
	}
}

func gridRows(g domain.Grid) [][]string {
	rows := make([][]string, domain.CanvasSize)
	for row := range g {
		rows[row] = make([]string, domain.CanvasSize)
		for col := range g[row] {
			rows[row][col] = string(g[row][col])
		}
	}
	return rows
}
