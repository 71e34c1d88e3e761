package wiki

import (
	"bytes"
	"context"
	"fmt"

	"github.com/MeKo-Tech/webworld/internal/render"
	"github.com/MeKo-Tech/webworld/internal/world"
)

const (
	WorldTitle    = "World"
	WorldSummary  = "The world"
	WorldFilename = "world.png"
)

// WorldPageOptions selects where a world is published. Empty fields take
// the World* defaults.
type WorldPageOptions struct {
	Title    string
	Summary  string
	Filename string
	Render   render.Options
}

// WorldPage renders the colour map of w and returns the page that shows it.
func WorldPage(w *world.World, opts WorldPageOptions) (Page, error) {
	if opts.Title == "" {
		opts.Title = WorldTitle
	}
	if opts.Summary == "" {
		opts.Summary = WorldSummary
	}
	if opts.Filename == "" {
		opts.Filename = WorldFilename
	}

	img, err := w.ColorMap()
	if err != nil {
		return Page{}, fmt.Errorf("failed to render world: %w", err)
	}

	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, render.Finish(img, opts.Render)); err != nil {
		return Page{}, err
	}

	return Page{
		Title:   opts.Title,
		Summary: opts.Summary,
		Text:    fmt.Sprintf("This is the world\n\n[[File:%s]]", opts.Filename),
		Files:   []File{{Name: opts.Filename, Data: buf.Bytes()}},
	}, nil
}

// CreateWorldPage publishes the world colour map.
func CreateWorldPage(ctx context.Context, c *Client, w *world.World, opts WorldPageOptions) error {
	page, err := WorldPage(w, opts)
	if err != nil {
		return err
	}
	return c.Publish(ctx, page)
}
