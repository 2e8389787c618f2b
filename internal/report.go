package internal

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/starford/dou/internal/models"
	"github.com/starford/dou/internal/projectservice"
)

var (
	heading = color.New(color.FgHiGreen, color.Bold)
	subtle  = color.New(color.FgHiBlack)
	warn    = color.New(color.FgYellow)
)

// swatch renders text on the node's palette colour.
func swatch(c models.Color) *color.Color {
	rgb := c.RGB()
	return color.BgRGB(int(rgb.R), int(rgb.G), int(rgb.B)).Add(color.FgBlack)
}

// withService runs fn against a project service built from opts. Sessions
// opened by fn are discarded afterwards.
func withService(opts []Option, fn func(*projectservice.Service) error) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := app.start(nil)
	if err != nil {
		return err
	}
	defer rt.close()
	return fn(rt.svc)
}

// PrintPaths writes every traversal path of a project to w, one block per
// path, followed by the nodes no path reaches.
func PrintPaths(ctx context.Context, w io.Writer, project string, opts ...Option) error {
	return withService(opts, func(svc *projectservice.Service) error {
		res, err := svc.Paths(ctx, project)
		if err != nil {
			return err
		}
		if len(res.Paths) == 0 && len(res.Unreached) == 0 {
			subtle.Fprintln(w, "no nodes")
			return nil
		}
		for i, p := range res.Paths {
			if i > 0 {
				fmt.Fprintln(w)
			}
			heading.Fprintf(w, "Path %d: %s\n", i+1, p.Label)
			for _, n := range p.Nodes {
				fmt.Fprintf(w, "  #%d ", n.OrderNumber)
				swatch(n.Color).Fprintf(w, " %s ", n.Title)
				fmt.Fprintln(w)
			}
			for _, line := range strings.Split(p.Text, "\n") {
				subtle.Fprintf(w, "    %s\n", line)
			}
		}
		if len(res.Unreached) > 0 {
			ids := make([]string, len(res.Unreached))
			for i, id := range res.Unreached {
				ids[i] = string(id)
			}
			fmt.Fprintln(w)
			warn.Fprintf(w, "Unreached: %s\n", strings.Join(ids, ", "))
		}
		return nil
	})
}

// PrintPrompt writes the prompt for question built from the selected paths:
// projectservice.PathAll or a 1-based path number.
func PrintPrompt(ctx context.Context, w io.Writer, project, which, question string, opts ...Option) error {
	return withService(opts, func(svc *projectservice.Service) error {
		prompt, err := svc.Prompt(ctx, project, which, question)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, prompt)
		return err
	})
}

// ExportMarkdown writes the Markdown export of a project to w.
func ExportMarkdown(ctx context.Context, w io.Writer, project string, opts ...Option) error {
	return withService(opts, func(svc *projectservice.Service) error {
		md, err := svc.Markdown(ctx, project)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, md)
		return err
	})
}
