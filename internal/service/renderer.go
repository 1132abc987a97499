package service

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"pixel-frame/internal/domain"
)

// Renderer 将网格光栅化为 PNG。它不持有任何状态, 也不依赖存储。
type Renderer struct {
	encode func(w io.Writer, img image.Image) error
}

func NewRenderer() *Renderer {
	enc := &png.Encoder{CompressionLevel: png.DefaultCompression}
	return &Renderer{encode: enc.Encode}
}

// Rasterize 返回 (CanvasSize*cellSize) 见方的图像, 每个格子为实心色块。
// 先铺黑色背景, 无法绘制的格子保持背景色。
func (r *Renderer) Rasterize(grid domain.Grid, cellSize int) (*image.RGBA, error) {
	if cellSize <= 0 || cellSize > domain.MaxCellSize {
		return nil, fmt.Errorf("%w: %d (allowed 1..%d)", ErrInvalidCellSize, cellSize, domain.MaxCellSize)
	}

	cells := image.NewRGBA(image.Rect(0, 0, domain.CanvasSize, domain.CanvasSize))
	bg, _ := domain.BackgroundColor.RGBA()
	draw.Draw(cells, cells.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	for row := range grid {
		for col, c := range grid[row] {
			if rgba, ok := c.RGBA(); ok {
				cells.SetRGBA(col, row, rgba)
			}
		}
	}

	// 整数倍最近邻放大, 像素 (x, y) 落在格子 (y/cellSize, x/cellSize)
	edge := domain.CanvasSize * cellSize
	out := image.NewRGBA(image.Rect(0, 0, edge, edge))
	draw.NearestNeighbor.Scale(out, out.Bounds(), cells, cells.Bounds(), draw.Src, nil)
	return out, nil
}

// Render 光栅化网格并编码为 PNG。相同输入总是得到相同字节。
func (r *Renderer) Render(grid domain.Grid, cellSize int) ([]byte, error) {
	img, err := r.Rasterize(grid, cellSize)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := r.encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: encoder produced no data", ErrRenderFailed)
	}
	return buf.Bytes(), nil
}
