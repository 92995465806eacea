package render

import (
	"math"

	"github.com/matzehuels/fourbar/pkg/linkage"
)

// frame maps linkage coordinates (y up) onto an SVG canvas (y down), keeping
// the aspect ratio.
type frame struct {
	minX, minY, maxX, maxY float64
	width, height, margin  float64
	scale                  float64
}

func newFrame(width, height, margin float64, pts []linkage.Vec2) frame {
	f := frame{
		minX: math.Inf(1), minY: math.Inf(1),
		maxX: math.Inf(-1), maxY: math.Inf(-1),
		width: width, height: height, margin: margin,
	}
	for _, p := range pts {
		f.minX = math.Min(f.minX, p.X)
		f.minY = math.Min(f.minY, p.Y)
		f.maxX = math.Max(f.maxX, p.X)
		f.maxY = math.Max(f.maxY, p.Y)
	}
	if len(pts) == 0 {
		f.minX, f.minY, f.maxX, f.maxY = -1, -1, 1, 1
	}
	spanX := math.Max(f.maxX-f.minX, 1e-9)
	spanY := math.Max(f.maxY-f.minY, 1e-9)
	f.scale = math.Min((width-2*margin)/spanX, (height-2*margin)/spanY)

	// Center the drawing on the canvas.
	cx, cy := (f.minX+f.maxX)/2, (f.minY+f.maxY)/2
	halfW := (width - 2*margin) / (2 * f.scale)
	halfH := (height - 2*margin) / (2 * f.scale)
	f.minX, f.maxX = cx-halfW, cx+halfW
	f.minY, f.maxY = cy-halfH, cy+halfH
	return f
}

func (f frame) x(v float64) float64 { return f.margin + (v-f.minX)*f.scale }
func (f frame) y(v float64) float64 { return f.height - f.margin - (v-f.minY)*f.scale }

func (f frame) pt(p linkage.Vec2) (float64, float64) { return f.x(p.X), f.y(p.Y) }
