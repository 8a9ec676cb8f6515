package image

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestLoad_PNGRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	require.NoError(t, SavePNG(path, solid(30, 20, color.RGBA{R: 200, A: 255})))

	layer, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, layer.Path)
	assert.Equal(t, 30, layer.Width())
	assert.Equal(t, 20, layer.Height())
	assert.True(t, layer.Visible)
	assert.Equal(t, 1.0, layer.Opacity)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "notes.txt"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("a.TIF"))
	assert.True(t, IsSupportedFormat("a.webp"))
	assert.False(t, IsSupportedFormat("a.svg"))
}

func TestEmptyLayer(t *testing.T) {
	l := NewLayer()
	assert.Equal(t, 0, l.Width())
	assert.Equal(t, 0, l.Height())
}

func TestCompositeNormal(t *testing.T) {
	c := NewComposite(10, 10)
	c.BackColor = color.RGBA{A: 255}

	top := FromImage(solid(5, 5, color.RGBA{R: 255, A: 255}))
	top.Opacity = 0.5
	c.AddLayer(top, BlendNormal, 2, 2)

	out := c.Render()
	assert.Equal(t, color.RGBA{A: 255}, out.RGBAAt(0, 0))
	px := out.RGBAAt(3, 3)
	assert.InDelta(t, 128, int(px.R), 1)
	assert.Equal(t, uint8(255), px.A)
	assert.Equal(t, color.RGBA{A: 255}, out.RGBAAt(8, 8))
}

func TestCompositeSkipsHiddenAndTransparent(t *testing.T) {
	c := NewComposite(4, 4)
	hidden := FromImage(solid(4, 4, color.RGBA{G: 255, A: 255}))
	hidden.Visible = false
	c.AddLayer(hidden, BlendNormal, 0, 0)
	c.AddLayer(FromImage(image.NewRGBA(image.Rect(0, 0, 4, 4))), BlendNormal, 0, 0)

	out := c.Render()
	assert.Equal(t, c.BackColor, out.RGBAAt(1, 1))
}

func TestCompositeDifference(t *testing.T) {
	c := NewComposite(2, 2)
	c.BackColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	c.AddLayer(FromImage(solid(2, 2, color.RGBA{R: 255, A: 255})), BlendDifference, 0, 0)

	assert.Equal(t, color.RGBA{G: 255, B: 255, A: 255}, c.Render().RGBAAt(0, 0))
}

func TestParseBlendMode(t *testing.T) {
	m, ok := ParseBlendMode("Multiply")
	assert.True(t, ok)
	assert.Equal(t, BlendMultiply, m)

	_, ok = ParseBlendMode("Dodge")
	assert.False(t, ok)
}
