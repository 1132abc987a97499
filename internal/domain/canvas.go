package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// 画布固定参数
const (
	CanvasSize      = 16  // 网格边长 (格子数)
	DefaultCellSize = 20  // 渲染时每个格子的像素边长, 16*20 = 320
	MaxCellSize     = 256 // 输出图像不超过 4096x4096
)

// 固定颜色
const (
	DefaultColor    Color = "#FFFFFF" // 初始背景色
	ErrorColor      Color = "#FF0000" // 存储数据损坏时的诊断色
	BackgroundColor Color = "#000000" // 渲染器兜底背景

	DefaultPaintColor Color = "#000000" // 放置像素时未指定颜色的默认值
)

var (
	// ErrInvalidColor 表示颜色不满足 #RRGGBB 格式
	ErrInvalidColor = errors.New("domain: invalid color, expected #RRGGBB")
	// ErrOutOfRange 表示行/列坐标越界
	ErrOutOfRange = errors.New("domain: cell address out of range")
	// ErrMalformedGrid 表示序列化数据无法解码为完整的网格
	ErrMalformedGrid = errors.New("domain: malformed grid data")
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Color 是一个 #RRGGBB 颜色值, 规范形式为大写。
type Color string

// ParseColor 校验并规范化颜色字符串。
func ParseColor(s string) (Color, error) {
	if !colorPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return Color(strings.ToUpper(s)), nil
}

// Valid 报告颜色是否满足 #RRGGBB 格式。
func (c Color) Valid() bool {
	return colorPattern.MatchString(string(c))
}

// RGBA 返回可绘制的颜色值, 无效颜色返回 false。
func (c Color) RGBA() (color.RGBA, bool) {
	if !c.Valid() {
		return color.RGBA{}, false
	}
	cf, err := colorful.Hex(string(c))
	if err != nil {
		return color.RGBA{}, false
	}
	r, g, b := cf.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, true
}

func (c Color) String() string { return string(c) }

// Grid 是 CanvasSize x CanvasSize 的颜色矩阵, 按行存储。
// 它是值类型, 赋值即复制。
type Grid [CanvasSize][CanvasSize]Color

// NewFilledGrid 返回所有格子均为 c 的网格。
func NewFilledGrid(c Color) Grid {
	var g Grid
	for row := range g {
		for col := range g[row] {
			g[row][col] = c
		}
	}
	return g
}

// InBounds 报告 (row, col) 是否为合法坐标。
func InBounds(row, col int) bool {
	return row >= 0 && row < CanvasSize && col >= 0 && col < CanvasSize
}

// At 返回 (row, col) 处的颜色。
func (g Grid) At(row, col int) (Color, error) {
	if !InBounds(row, col) {
		return "", fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, row, col)
	}
	return g[row][col], nil
}

// Set 设置 (row, col) 处的颜色。越界或颜色无效时不做任何修改。
func (g *Grid) Set(row, col int, c Color) error {
	if !InBounds(row, col) {
		return fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, row, col)
	}
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidColor, string(c))
	}
	g[row][col] = Color(strings.ToUpper(string(c)))
	return nil
}

// Equal 比较两个网格内容是否一致。
func (g Grid) Equal(other Grid) bool {
	return g == other
}

// EncodeGrid 将网格序列化为 JSON 二维字符串数组, 颜色写为大写形式。
// 任一格子不是合法颜色时返回包装了 ErrInvalidColor 的错误。
func EncodeGrid(g Grid) ([]byte, error) {
	rows := make([][]string, CanvasSize)
	for row := range g {
		rows[row] = make([]string, CanvasSize)
		for col := range g[row] {
			c, err := ParseColor(string(g[row][col]))
			if err != nil {
				return nil, fmt.Errorf("cell (%d, %d): %w", row, col, err)
			}
			rows[row][col] = string(c)
		}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal grid: %w", err)
	}
	return data, nil
}

// DecodeGrid 严格解码: 必须恰好 CanvasSize 行, 每行 CanvasSize 个合法颜色。
// 其余任何情况都返回包装了 ErrMalformedGrid 的错误。
func DecodeGrid(data []byte) (Grid, error) {
	var g Grid
	var rows [][]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return g, fmt.Errorf("%w: %v", ErrMalformedGrid, err)
	}
	if len(rows) != CanvasSize {
		return g, fmt.Errorf("%w: expected %d rows, got %d", ErrMalformedGrid, CanvasSize, len(rows))
	}
	for row, cells := range rows {
		if len(cells) != CanvasSize {
			return g, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrMalformedGrid, row, len(cells), CanvasSize)
		}
		for col, raw := range cells {
			c, err := ParseColor(raw)
			if err != nil {
				return g, fmt.Errorf("%w: cell (%d, %d): %v", ErrMalformedGrid, row, col, err)
			}
			g[row][col] = c
		}
	}
	return g, nil
}
