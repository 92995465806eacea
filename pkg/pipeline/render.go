package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/fourbar/pkg/linkage"
	"github.com/matzehuels/fourbar/pkg/render"
)

// Render produces the requested artifacts for a sweep record.
func Render(ctx context.Context, l *linkage.Linkage, rec *linkage.SweepRecord, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	var svg []byte
	sweepSVG := func() []byte {
		if svg == nil {
			svg = render.RenderSweepSVG(l, rec, render.WithSize(opts.Width, opts.Height))
		}
		return svg
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sweepSVG()
		case FormatJSON:
			data, err = render.RenderSweepJSON(l, rec)
		case FormatCSV:
			data, err = render.RenderSweepCSV(rec)
		case FormatPNG:
			data, err = render.ToPNG(ctx, sweepSVG(), 2)
		case FormatPDF:
			data, err = render.ToPDF(ctx, sweepSVG())
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
