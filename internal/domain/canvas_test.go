package domain_test

import (
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixel-frame/internal/domain"
)

func TestParseColor(t *testing.T) {
	c, err := domain.ParseColor("#00ff00")
	require.NoError(t, err)
	assert.Equal(t, domain.Color("#00FF00"), c, "颜色应规范化为大写")

	for _, bad := range []string{"blue", "#0000F", "#0000FFF", "0000FF", "#GG0000", "", " #000000"} {
		_, err := domain.ParseColor(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidColor, "input %q", bad)
	}
}

func TestColor_RGBA(t *testing.T) {
	rgba, ok := domain.Color("#123456").RGBA()
	require.True(t, ok)
	assert.Equal(t, color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}, rgba)

	_, ok = domain.Color("red").RGBA()
	assert.False(t, ok)
}

func TestGrid_SetAndAt(t *testing.T) {
	g := domain.NewFilledGrid(domain.DefaultColor)
	require.NoError(t, g.Set(3, 5, "#00ff00"))

	c, err := g.At(3, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.Color("#00FF00"), c)

	before := g
	assert.ErrorIs(t, g.Set(16, 0, "#000000"), domain.ErrOutOfRange)
	assert.ErrorIs(t, g.Set(0, -1, "#000000"), domain.ErrOutOfRange)
	assert.ErrorIs(t, g.Set(0, 0, "blue"), domain.ErrInvalidColor)
	assert.True(t, before.Equal(g), "失败的 Set 不应修改网格")

	_, err = g.At(0, domain.CanvasSize)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)
}

func TestGrid_IsValueType(t *testing.T) {
	a := domain.NewFilledGrid(domain.DefaultColor)
	b := a
	require.NoError(t, b.Set(0, 0, "#000000"))
	assert.Equal(t, domain.DefaultColor, a[0][0])
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	g := domain.NewFilledGrid(domain.DefaultColor)
	for i := 0; i < domain.CanvasSize; i++ {
		require.NoError(t, g.Set(i, domain.CanvasSize-1-i, "#0A0B0C"))
	}

	data, err := domain.EncodeGrid(g)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `[["#FFFFFF"`))

	decoded, err := domain.DecodeGrid(data)
	require.NoError(t, err)
	if diff := cmp.Diff(g, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeGrid_RejectsInvalidCells(t *testing.T) {
	_, err := domain.EncodeGrid(domain.Grid{})
	assert.ErrorIs(t, err, domain.ErrInvalidColor)

	g := domain.NewFilledGrid(domain.DefaultColor)
	g[3][4] = "blue"
	_, err = domain.EncodeGrid(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidColor)
	assert.Contains(t, err.Error(), "cell (3, 4)")
}

func TestEncodeGrid_Canonicalizes(t *testing.T) {
	g := domain.NewFilledGrid(domain.DefaultColor)
	g[0][0] = "#abcdef"

	data, err := domain.EncodeGrid(g)
	require.NoError(t, err)
	decoded, err := domain.DecodeGrid(data)
	require.NoError(t, err)
	assert.Equal(t, domain.Color("#ABCDEF"), decoded[0][0])
}

func TestDecodeGrid_Malformed(t *testing.T) {
	valid, err := domain.EncodeGrid(domain.NewFilledGrid(domain.DefaultColor))
	require.NoError(t, err)

	row := `["` + strings.Repeat(`#FFFFFF","`, domain.CanvasSize-1) + `#FFFFFF"]`
	rows := func(n int, r string) string {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = r
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	badCell := strings.Replace(row, "#FFFFFF", "blue", 1)
	shortRow := `["` + strings.Repeat(`#FFFFFF","`, domain.CanvasSize-2) + `#FFFFFF"]`

	cases := map[string]string{
		"truncated":     string(valid[:len(valid)/2]),
		"not json":      "hello",
		"too few rows":  rows(domain.CanvasSize-1, row),
		"too many rows": rows(domain.CanvasSize+1, row),
		"short row":     rows(domain.CanvasSize-1, row)[:len(rows(domain.CanvasSize-1, row))-1] + "," + shortRow + "]",
		"named color":   rows(domain.CanvasSize-1, row)[:len(rows(domain.CanvasSize-1, row))-1] + "," + badCell + "]",
		"null cell":     strings.Replace(string(valid), `"#FFFFFF"`, "null", 1),
		"object":        `{"a":1}`,
		"empty":         "",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := domain.DecodeGrid([]byte(input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrMalformedGrid))
		})
	}
}
