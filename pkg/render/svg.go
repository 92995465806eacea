package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/fourbar/pkg/linkage"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 600
	defaultMargin = 40
)

var branchColors = map[linkage.Configuration]string{
	linkage.Open:    "#2563eb",
	linkage.Crossed: "#ea580c",
}

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	width, height float64
	title         string
	events        bool
	linkage       bool
}

// WithSize sets the canvas size in pixels. Non-positive values keep the default.
func WithSize(width, height int) SVGOption {
	return func(r *svgRenderer) {
		if width > 0 {
			r.width = float64(width)
		}
		if height > 0 {
			r.height = float64(height)
		}
	}
}

// WithTitle adds a caption in the top-left corner.
func WithTitle(title string) SVGOption { return func(r *svgRenderer) { r.title = title } }

// WithoutEvents hides singularity and non-convergence marks on sweep plots.
func WithoutEvents() SVGOption { return func(r *svgRenderer) { r.events = false } }

// WithoutLinkage hides the reference pose drawn under a sweep trace.
func WithoutLinkage() SVGOption { return func(r *svgRenderer) { r.linkage = false } }

func newSVGRenderer(opts []SVGOption) svgRenderer {
	r := svgRenderer{width: DefaultWidth, height: DefaultHeight, events: true, linkage: true}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderPositionSVG draws one solved position: ground, crank, coupler, and
// rocker as lines, with the four joints as circles.
func RenderPositionSVG(l *linkage.Linkage, p linkage.PositionResult, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts)
	pts := p.Points
	f := newFrame(r.width, r.height, defaultMargin, []linkage.Vec2{pts.A, pts.B, pts.C, pts.D})

	var buf bytes.Buffer
	r.open(&buf)
	writeGround(&buf, f, pts)
	writePose(&buf, f, pts, branchColors[p.Configuration], 1)
	r.caption(&buf, fmt.Sprintf("%s · %s · θ2=%.1f° θ3=%.2f° θ4=%.2f°",
		l.Classify(), p.Configuration, p.Theta2, p.Theta3, p.Theta4))
	if p.Singularity.NearSingular {
		cx, cy := f.pt(pts.C)
		fmt.Fprintf(&buf, `  <circle class="near-singular" cx="%.2f" cy="%.2f" r="10" fill="none" stroke="#dc2626" stroke-width="2"/>`+"\n", cx, cy)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// RenderSweepSVG draws the path of coupler joint C over a sweep, one polyline
// per configuration and per run of consecutive converged samples. Events are
// marked unless [WithoutEvents] is given: near-singular positions as red
// rings at C, non-convergent samples as grey crosses at B.
func RenderSweepSVG(l *linkage.Linkage, rec *linkage.SweepRecord, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts)

	pts := []linkage.Vec2{{}, {X: l.Fixed()}}
	for _, p := range rec.Results {
		pts = append(pts, p.Points.B, p.Points.C)
	}
	for _, e := range rec.NonConvergent() {
		pts = append(pts, l.CrankPin(float64(e.Theta2)))
	}
	f := newFrame(r.width, r.height, defaultMargin, pts)

	var buf bytes.Buffer
	r.open(&buf)
	writeGround(&buf, f, linkage.Points{D: linkage.Vec2{X: l.Fixed()}})

	if r.linkage && len(rec.Results) > 0 {
		ref := rec.Results[0]
		writePose(&buf, f, ref.Points, branchColors[ref.Configuration], 0.25)
	}

	for _, cfg := range linkage.Configurations {
		for _, run := range traceRuns(rec, cfg) {
			fmt.Fprintf(&buf, `  <polyline class="trace %s" fill="none" stroke="%s" stroke-width="2" points="`, cfg, branchColors[cfg])
			for i, p := range run {
				if i > 0 {
					buf.WriteByte(' ')
				}
				x, y := f.pt(p.Points.C)
				fmt.Fprintf(&buf, "%.2f,%.2f", x, y)
			}
			buf.WriteString(`"/>` + "\n")
		}
	}

	if r.events {
		for _, p := range rec.Results {
			if !p.Singularity.NearSingular {
				continue
			}
			x, y := f.pt(p.Points.C)
			fmt.Fprintf(&buf, `  <circle class="near-singular" cx="%.2f" cy="%.2f" r="5" fill="none" stroke="#dc2626" stroke-width="1.5"/>`+"\n", x, y)
		}
		for _, e := range rec.NonConvergent() {
			x, y := f.pt(l.CrankPin(float64(e.Theta2)))
			fmt.Fprintf(&buf, `  <path class="non-convergent" d="M%.2f %.2f l6 6 m0 -6 l-6 6" stroke="#9ca3af" stroke-width="1.5" transform="translate(-3 -3)"/>`+"\n", x, y)
		}
	}

	r.caption(&buf, fmt.Sprintf("%s · step %d° · %d positions · %d events",
		l.Classify(), rec.Step, len(rec.Results), len(rec.Events)))
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// traceRuns splits the results of one configuration into runs of angles that
// are consecutive at the sweep step. A full-circle run is closed by repeating
// its first sample.
func traceRuns(rec *linkage.SweepRecord, cfg linkage.Configuration) [][]linkage.PositionResult {
	var runs [][]linkage.PositionResult
	var cur []linkage.PositionResult
	prev := -1.0
	for _, p := range rec.Results {
		if p.Configuration != cfg {
			continue
		}
		if cur != nil && p.Theta2-prev > float64(rec.Step)+1e-9 {
			runs = append(runs, cur)
			cur = nil
		}
		cur = append(cur, p)
		prev = p.Theta2
	}
	if cur != nil {
		runs = append(runs, cur)
	}
	if len(runs) == 1 && len(runs[0]) == len(linkage.SweepAngles(rec.Step)) {
		runs[0] = append(runs[0], runs[0][0])
	}
	return runs
}

func (r svgRenderer) open(buf *bytes.Buffer) {
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" width="%.0f" height="%.0f">`+"\n",
		r.width, r.height, r.width, r.height)
	fmt.Fprintf(buf, `  <rect width="100%%" height="100%%" fill="#ffffff"/>`+"\n")
}

func (r svgRenderer) caption(buf *bytes.Buffer, fallback string) {
	text := r.title
	if text == "" {
		text = fallback
	}
	fmt.Fprintf(buf, `  <text x="12" y="22" font-family="sans-serif" font-size="14" fill="#111827">%s</text>`+"\n", html.EscapeString(text))
}

func writeGround(buf *bytes.Buffer, f frame, pts linkage.Points) {
	ax, ay := f.pt(pts.A)
	dx, dy := f.pt(pts.D)
	fmt.Fprintf(buf, `  <line class="ground" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="#6b7280" stroke-width="2" stroke-dasharray="6 4"/>`+"\n", ax, ay, dx, dy)
	for _, p := range [][2]float64{{ax, ay}, {dx, dy}} {
		fmt.Fprintf(buf, `  <path class="pivot" d="M%.2f %.2f l-8 12 h16 z" fill="#d1d5db" stroke="#374151"/>`+"\n", p[0], p[1])
	}
}

func writePose(buf *bytes.Buffer, f frame, pts linkage.Points, color string, opacity float64) {
	links := []struct {
		class    string
		from, to linkage.Vec2
	}{
		{"input", pts.A, pts.B},
		{"coupler", pts.B, pts.C},
		{"output", pts.C, pts.D},
	}
	fmt.Fprintf(buf, `  <g class="pose" opacity="%.2f">`+"\n", opacity)
	for _, ln := range links {
		x1, y1 := f.pt(ln.from)
		x2, y2 := f.pt(ln.to)
		fmt.Fprintf(buf, `    <line class="%s" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="4" stroke-linecap="round"/>`+"\n",
			ln.class, x1, y1, x2, y2, color)
	}
	for _, j := range []linkage.Vec2{pts.A, pts.B, pts.C, pts.D} {
		x, y := f.pt(j)
		fmt.Fprintf(buf, `    <circle class="joint" cx="%.2f" cy="%.2f" r="4" fill="#ffffff" stroke="#111827" stroke-width="1.5"/>`+"\n", x, y)
	}
	buf.WriteString("  </g>\n")
}
