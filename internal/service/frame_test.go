package service_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixel-frame/internal/domain"
	"pixel-frame/internal/infra/state/memory"
	"pixel-frame/internal/service"
)

func newFrameService(t *testing.T) (*service.FrameService, *memory.KVStore) {
	t.Helper()
	kv := memory.NewKVStore()
	store := service.NewCanvasStore(kv, canvasKey)
	return service.NewFrameService(store, service.NewRenderer(), domain.DefaultCellSize, "https://frame.example.com/"), kv
}

func TestParsePlacementInput(t *testing.T) {
	row, col, c, err := service.ParsePlacementInput(" 3, 5 ")
	require.NoError(t, err)
	assert.Equal(t, 3, row)
	assert.Equal(t, 5, col)
	assert.Empty(t, c)

	row, col, c, err = service.ParsePlacementInput("0,15,00ff00")
	require.NoError(t, err)
	assert.Equal(t, 0, row)
	assert.Equal(t, 15, col)
	assert.Equal(t, "#00FF00", c)

	for _, bad := range []string{"", "3", "a,b", "1,2,3,4", "1,2,blue"} {
		_, _, _, err := service.ParsePlacementInput(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestFrameService_Refresh(t *testing.T) {
	svc, _ := newFrameService(t)

	res, err := svc.Handle(context.Background(), service.FrameAction{})
	require.NoError(t, err)
	assert.Nil(t, res.Placement)
	assert.Equal(t, service.OutcomeDefault, res.Page.Outcome)
	assert.Equal(t, "https://frame.example.com/api/frame", res.Page.PostURL)
	assert.Equal(t, service.FrameButtons, res.Page.Buttons)
	require.True(t, strings.HasPrefix(res.Page.ImageDataURL, "data:image/png;base64,"))

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(res.Page.ImageDataURL, "data:image/png;base64,"))
	require.NoError(t, err)
	want, err := service.NewRenderer().Render(domain.NewFilledGrid(domain.DefaultColor), domain.DefaultCellSize)
	require.NoError(t, err)
	assert.Equal(t, want, png)
}

func TestFrameService_ChooseColorThenPlace(t *testing.T) {
	svc, _ := newFrameService(t)
	ctx := context.Background()

	chosen, err := svc.Handle(ctx, service.FrameAction{ButtonIndex: service.ButtonChooseColor, InputText: "#00ff00"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"color":"#00FF00"}`, chosen.Page.State)
	assert.Nil(t, chosen.Placement)

	placed, err := svc.Handle(ctx, service.FrameAction{
		Fid:         42,
		ButtonIndex: service.ButtonPlacePixel,
		InputText:   "3,5",
		State:       chosen.Page.State,
	})
	require.NoError(t, err)
	require.NotNil(t, placed.Placement)
	assert.Equal(t, 3, placed.Placement.Row)
	assert.Equal(t, 5, placed.Placement.Col)
	assert.Equal(t, "#00FF00", placed.Placement.Color)
	assert.Equal(t, uint64(42), placed.Placement.Fid)

	grid := svc.Store().Load(ctx)
	assert.Equal(t, domain.Color("#00FF00"), grid[3][5])
	assert.Equal(t, domain.DefaultColor, grid[5][3])
}

func TestFrameService_PlaceWithoutColorUsesDefaultPaint(t *testing.T) {
	svc, _ := newFrameService(t)
	ctx := context.Background()

	res, err := svc.Handle(ctx, service.FrameAction{ButtonIndex: service.ButtonPlacePixel, InputText: "0,0", State: "{broken"})
	require.NoError(t, err)
	require.NotNil(t, res.Placement)
	assert.Equal(t, domain.DefaultPaintColor, svc.Store().Load(ctx)[0][0])
}

func TestFrameService_InvalidInputDoesNotFail(t *testing.T) {
	svc, kv := newFrameService(t)
	ctx := context.Background()

	res, err := svc.Handle(ctx, service.FrameAction{ButtonIndex: service.ButtonPlacePixel, InputText: "16,0,#000000"})
	require.NoError(t, err)
	assert.Nil(t, res.Placement)
	assert.Contains(t, res.Page.Title, "Could not place pixel")

	res, err = svc.Handle(ctx, service.FrameAction{ButtonIndex: service.ButtonChooseColor, InputText: "blue"})
	require.NoError(t, err)
	assert.Empty(t, res.Page.State)
	assert.Contains(t, res.Page.Title, "Invalid color")

	raw, ok := kv.Raw(canvasKey)
	require.True(t, ok)
	grid, err := domain.DecodeGrid(raw)
	require.NoError(t, err)
	assertFilled(t, grid, domain.DefaultColor)
}
