package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/glimmerlab/graphview/internal/config"
	"github.com/glimmerlab/graphview/pkg/graph"
	"github.com/glimmerlab/graphview/pkg/graphview"
	"github.com/glimmerlab/graphview/pkg/layout"
	"github.com/glimmerlab/graphview/pkg/renderer/markup"
	"github.com/glimmerlab/graphview/pkg/scene"
)

func newRenderCommand() *cobra.Command {
	var out string
	var width, height float64

	cmd := &cobra.Command{
		Use:   "render <graph-file>",
		Short: "Render a graph file to static SVG",
		Long:  `Lays out the graph once and writes the resulting SVG. No server, no interactivity.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(args[0], out, width, height)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to stdout)")
	cmd.Flags().Float64Var(&width, "width", 0, "surface width in pixels (overrides graphview.json)")
	cmd.Flags().Float64Var(&height, "height", 0, "surface height in pixels (overrides graphview.json)")

	return cmd
}

func runRender(graphPath, out string, width, height float64) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if width != 0 {
		cfg.View.Width = width
	}
	if height != 0 {
		cfg.View.Height = height
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	g, err := graph.Load(graphPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", graphPath, err)
	}

	engine := layout.NewForceEngine(cfg.LayoutConfig())
	view := graphview.New(cfg.View.Width, cfg.View.Height, graphview.WithEngine(engine))
	if err := view.Render(g); err != nil {
		return err
	}

	// The static export is the svg alone, without the page scaffolding.
	svg := view.Tree().Find(func(n *scene.Node) bool { return n.Tag == "svg" })
	if svg == nil {
		return fmt.Errorf("render produced no svg")
	}
	text, err := markup.RenderToString(svg)
	if err != nil {
		return err
	}

	if out == "" {
		fmt.Println(text)
		return nil
	}
	return os.WriteFile(out, []byte(text), 0644)
}
