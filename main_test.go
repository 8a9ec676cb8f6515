package main

import (
	"bytes"
	goimage "image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"affine-overlay/internal/gcp"
	"affine-overlay/internal/image"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, image.SavePNG(path, goimage.NewRGBA(goimage.Rect(0, 0, 100, 50))))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	cmd := NewCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGCPsCommand_GDAL(t *testing.T) {
	out, err := execute(t, "gcps", writeImage(t), "--lng", "13.4", "--lat", "52.5", "--zoom", "12")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "gdal_translate"), out)
	assert.Equal(t, 3, strings.Count(out, "-gcp "))
	assert.Contains(t, out, "-gcp 0 0 13.")
}

func TestGCPsCommand_JSONWithDrag(t *testing.T) {
	out, err := execute(t, "gcps", writeImage(t), "--zoom", "12", "-f", "json", "-d", "1:+100,0", "--pan", "10,10")
	require.NoError(t, err)

	gcps, err := gcp.ReadJSON(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, gcps, 3)
	assert.Greater(t, gcps[1].World.Lon(), gcps[2].World.Lon())
}

func TestGCPsCommand_OutputFile(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "gcps.yaml")
	_, err := execute(t, "gcps", writeImage(t), "-f", "yaml", "-o", dst)
	require.NoError(t, err)

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	gcps, err := gcp.ReadYAML(f)
	require.NoError(t, err)
	assert.Len(t, gcps, 3)
}

func TestGCPsCommand_Errors(t *testing.T) {
	_, err := execute(t, "gcps", writeImage(t), "-f", "kml")
	assert.Error(t, err)

	_, err = execute(t, "gcps", writeImage(t), "-d", "7:1,1")
	assert.Error(t, err)

	_, err = execute(t, "gcps", filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestPreviewCommand(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "preview.png")
	_, err := execute(t, "preview", writeImage(t), dst, "--width", "320", "--height", "240", "--blend", "Multiply")
	require.NoError(t, err)

	layer, err := image.Load(dst)
	require.NoError(t, err)
	assert.Equal(t, 320, layer.Width())
	assert.Equal(t, 240, layer.Height())
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "affine-overlay")
}

func TestGUICommandRegistered(t *testing.T) {
	t.Cleanup(viper.Reset)
	cmd, _, err := NewCmd().Find([]string{"gui"})
	require.NoError(t, err)
	assert.Equal(t, "gui", cmd.Name())
	assert.NotNil(t, cmd.Flags().Lookup("format"))
}
