package worker

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"github.com/MeKo-Tech/webworld/internal/perlin"
	"github.com/MeKo-Tech/webworld/internal/render"
)

// OctaveExporter writes the combined map and each octave contribution of a
// generation result as PNG files into Dir.
type OctaveExporter struct {
	Result   *perlin.Result
	Dir      string
	Render   render.Options
	Captions bool
}

// Tasks returns one task for the combined map followed by one per octave.
func (e *OctaveExporter) Tasks() []Task {
	tasks := []Task{{Name: "combined.png", Combined: true}}
	for i, o := range e.Result.Octaves {
		tasks = append(tasks, Task{
			Name:     fmt.Sprintf("octave_%02d_grid_%d.png", i, o.GridSize),
			Index:    i,
			GridSize: o.GridSize,
		})
	}
	return tasks
}

// Export renders and writes the image for task.
func (e *OctaveExporter) Export(ctx context.Context, task Task) (string, error) {
	var img image.Image
	caption := ""
	if task.Combined {
		img = render.Gray(e.Result.Map)
		caption = "Combined noise map"
	} else {
		if task.Index < 0 || task.Index >= len(e.Result.Octaves) {
			return "", fmt.Errorf("octave index %d out of range", task.Index)
		}
		img = render.Contribution(e.Result.Octaves[task.Index].Contribution)
		caption = fmt.Sprintf("Grid size %d", task.GridSize)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	opts := e.Render
	if e.Captions {
		opts.Caption = caption
	}
	path := filepath.Join(e.Dir, task.Name)
	if err := render.WritePNG(path, render.Finish(img, opts)); err != nil {
		return "", err
	}
	return path, nil
}
