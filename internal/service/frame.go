package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"pixel-frame/internal/domain"
)

// 帧按钮序号 (从 1 开始, 与协议一致)
const (
	ButtonChooseColor = 1
	ButtonPlacePixel  = 2
	ButtonRefresh     = 3
)

const frameTitle = "Frame Canvas - Collab Pixel Art"

// FrameButtons 是帧上依次展示的按钮文案
var FrameButtons = []string{"🎨 Choose Color", "📍 Place Pixel", "🔄 Refresh"}

// FrameAction 是帧回调中与业务相关的字段 (untrustedData)
type FrameAction struct {
	Fid         uint64 `json:"fid"`
	ButtonIndex int    `json:"buttonIndex"`
	InputText   string `json:"inputText"`
	State       string `json:"state"`
}

// FrameState 通过 fc:frame:state 在多次交互之间携带已选颜色
type FrameState struct {
	Color string `json:"color,omitempty"`
}

// FramePage 是响应组装所需的全部数据
type FramePage struct {
	Title        string
	ImageDataURL string
	PostURL      string
	State        string
	Buttons      []string
	InputHint    string
	Outcome      LoadOutcome
}

// FrameResult 是一次帧交互的结果
type FrameResult struct {
	Page      FramePage
	Placement *domain.Placement // 成功放置像素时非空
}

// FrameService 组合 CanvasStore 与 Renderer 处理帧请求。
type FrameService struct {
	store    *CanvasStore
	renderer *Renderer
	cellSize int
	baseURL  string
}

func NewFrameService(store *CanvasStore, renderer *Renderer, cellSize int, baseURL string) *FrameService {
	if store == nil || renderer == nil {
		panic("CanvasStore and Renderer must be non-nil for FrameService")
	}
	if cellSize <= 0 {
		cellSize = domain.DefaultCellSize
	}
	return &FrameService{
		store:    store,
		renderer: renderer,
		cellSize: cellSize,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Store 返回底层的 CanvasStore
func (s *FrameService) Store() *CanvasStore { return s.store }

// CellSize 返回渲染使用的格子边长
func (s *FrameService) CellSize() int { return s.cellSize }

// Handle 处理一次帧交互并返回需要渲染的页面。
// 用户输入错误不会导致失败, 只会体现在页面标题上; 只有渲染失败才返回错误。
func (s *FrameService) Handle(ctx context.Context, action FrameAction) (*FrameResult, error) {
	logCtx := logrus.WithFields(logrus.Fields{"fid": action.Fid, "button": action.ButtonIndex})

	state := decodeFrameState(action.State)
	title := frameTitle
	var placement *domain.Placement
	var grid domain.Grid
	var outcome LoadOutcome
	loaded := false

	switch action.ButtonIndex {
	case ButtonChooseColor:
		c, err := ParseColorInput(action.InputText)
		if err != nil {
			logCtx.WithError(err).Debug("Rejected color input")
			title = "Invalid color, use #RRGGBB"
			break
		}
		state.Color = string(c)
		title = "Color selected: " + string(c)

	case ButtonPlacePixel:
		row, col, c, err := ParsePlacementInput(action.InputText)
		if err != nil {
			logCtx.WithError(err).Debug("Rejected placement input")
			title = "Invalid input, use row,col or row,col,#RRGGBB"
			break
		}
		if c == "" {
			c = state.Color
		}
		if c == "" {
			c = string(domain.DefaultPaintColor)
		}
		updated, err := s.store.SetPixel(ctx, row, col, c)
		if err != nil {
			logCtx.WithError(err).Warn("Failed to place pixel")
			title = "Could not place pixel: " + err.Error()
			break
		}
		grid, outcome, loaded = updated, OutcomeValid, true
		placement = &domain.Placement{
			Row:      row,
			Col:      col,
			Color:    strings.ToUpper(c),
			Fid:      action.Fid,
			PlacedAt: time.Now().UTC(),
		}
		title = fmt.Sprintf("Placed %s at %d,%d", placement.Color, row, col)
	}

	if !loaded {
		result := s.store.LoadResult(ctx)
		grid, outcome = result.Grid, result.Outcome
	}

	png, err := s.renderer.Render(grid, s.cellSize)
	if err != nil {
		logCtx.WithError(err).Error("Failed to render canvas")
		return nil, err
	}

	return &FrameResult{
		Page: FramePage{
			Title:        title,
			ImageDataURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
			PostURL:      s.baseURL + "/api/frame",
			State:        encodeFrameState(state),
			Buttons:      FrameButtons,
			InputHint:    "#RRGGBB or row,col[,#RRGGBB]",
			Outcome:      outcome,
		},
		Placement: placement,
	}, nil
}

// ParseColorInput 接受 "#RRGGBB" 或 "RRGGBB"。
func ParseColorInput(text string) (domain.Color, error) {
	text = strings.TrimSpace(text)
	if text != "" && !strings.HasPrefix(text, "#") {
		text = "#" + text
	}
	return domain.ParseColor(text)
}

// ParsePlacementInput 解析 "row,col" 或 "row,col,#RRGGBB"。颜色缺省时返回空字符串。
func ParsePlacementInput(text string) (row, col int, color string, err error) {
	parts := strings.Split(strings.TrimSpace(text), ",")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, "", fmt.Errorf("%w: %q", ErrInvalidInput, text)
	}
	row, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: bad row %q", ErrInvalidInput, parts[0])
	}
	col, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: bad column %q", ErrInvalidInput, parts[1])
	}
	if len(parts) == 3 {
		c, cErr := ParseColorInput(parts[2])
		if cErr != nil {
			return 0, 0, "", cErr
		}
		color = string(c)
	}
	return row, col, color, nil
}

func decodeFrameState(raw string) FrameState {
	var st FrameState
	if raw == "" {
		return st
	}
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return FrameState{}
	}
	c, err := domain.ParseColor(st.Color)
	if err != nil {
		return FrameState{}
	}
	st.Color = string(c)
	return st
}

func encodeFrameState(st FrameState) string {
	if st.Color == "" {
		return ""
	}
	data, err := json.Marshal(st)
	if err != nil {
		return ""
	}
	return string(data)
}
