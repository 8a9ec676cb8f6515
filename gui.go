package main

import (
	"path/filepath"

	"affine-overlay/internal/app"
	"affine-overlay/ui/canvas"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
)

const appID = "io.github.affine-overlay"

func newGUICmd() *cobra.Command {
	guiCmd := &cobra.Command{
		Use:   "gui [flags] <image>",
		Short: "Place the image interactively; GCPs are written when the window closes",
		Long: "Opens a window with the map and the overlay. Drag a pin to move its control point,\n" +
			"drag elsewhere to pan and use the wheel to zoom. On close the ground control points\n" +
			"are written like the gcps command does.",
		Args: cobra.ExactArgs(1),
		RunE: doGUI,
	}
	addOutputFlags(guiCmd)
	return guiCmd
}

func doGUI(cmd *cobra.Command, args []string) error {
	s, log, err := openSession(cmd, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	s.On(app.EventMarkerDragged, func(data interface{}) {
		d := data.(app.Drag)
		gcps, err := s.GCPs()
		if err != nil {
			return
		}
		log.Info().Int("marker", d.Index).
			Float64("lng", gcps[d.Index].World.Lon()).
			Float64("lat", gcps[d.Index].World.Lat()).
			Msg("control point moved")
	})

	cfg := s.Config()
	size := fyne.NewSize(float32(cfg.Map.Width), float32(cfg.Map.Height))

	a := fyneapp.NewWithID(appID)
	win := a.NewWindow("affine-overlay - " + filepath.Base(args[0]))

	mc := canvas.NewMapCanvas(s, size)
	mc.OnError(func(err error) {
		log.Warn().Err(err).Msg("drag rejected")
	})
	win.SetContent(mc)
	win.Resize(size)
	win.ShowAndRun()

	return writeGCPs(cmd, s, log)
}
