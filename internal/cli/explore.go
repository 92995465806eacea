package cli

import (
	"fmt"
	"math"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/fourbar/pkg/linkage"
)

// exploreSteps are the increments the up/down keys cycle through.
var exploreSteps = []int{1, 2, 5, 10, 15, 30, 45, 90}

// ExploreModel is the bubbletea model of `fourbar explore`: one linkage
// position that the arrow keys move around the crank circle.
type ExploreModel struct {
	Linkage       *linkage.Linkage
	Theta2        int
	Step          int
	Configuration linkage.Configuration

	opts     []linkage.Option
	position linkage.PositionResult
	solve    linkage.SolveResult
	ok       bool
	width    int
	height   int
}

// NewExploreModel creates a model at input angle theta2 on the open branch.
func NewExploreModel(l *linkage.Linkage, theta2 int, opts ...linkage.Option) ExploreModel {
	m := ExploreModel{
		Linkage:       l,
		Theta2:        wrapDegrees(theta2),
		Step:          exploreSteps[0],
		Configuration: linkage.Open,
		opts:          opts,
		width:         64,
		height:        18,
	}
	return m.solved()
}

func (m ExploreModel) solved() ExploreModel {
	m.position, m.solve, m.ok = m.Linkage.SolvePositionDetail(float64(m.Theta2), m.Configuration, m.opts...)
	return m
}

func (m ExploreModel) Init() tea.Cmd {
	return nil
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "l":
			m.Theta2 = wrapDegrees(m.Theta2 + m.Step)
		case "left", "h":
			m.Theta2 = wrapDegrees(m.Theta2 - m.Step)
		case "up", "k":
			if i := slices.Index(exploreSteps, m.Step); i < len(exploreSteps)-1 {
				m.Step = exploreSteps[i+1]
			}
		case "down", "j":
			if i := slices.Index(exploreSteps, m.Step); i > 0 {
				m.Step = exploreSteps[i-1]
			}
		case "tab", " ":
			if m.Configuration == linkage.Open {
				m.Configuration = linkage.Crossed
			} else {
				m.Configuration = linkage.Open
			}
		case "home", "0":
			m.Theta2 = 0
		default:
			return m, nil
		}
		return m.solved(), nil
	case tea.WindowSizeMsg:
		m.width = max(msg.Width-4, 24)
		m.height = max(msg.Height-12, 8)
	}
	return m, nil
}

func (m ExploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Linkage.Classify().Description()))
	b.WriteString(" " + StyleDim.Render(formatLengths(m.Linkage.Lengths())))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ rotate  ↑/↓ step  tab branch  q quit"))
	b.WriteString("\n\n")

	branch := styleOpen.Render(string(m.Configuration))
	if m.Configuration == linkage.Crossed {
		branch = styleCrossed.Render(string(m.Configuration))
	}
	fmt.Fprintf(&b, "θ2 %s  step %s  %s\n",
		StyleNumber.Render(fmt.Sprintf("%3d°", m.Theta2)),
		StyleNumber.Render(fmt.Sprintf("%d°", m.Step)),
		branch)

	if !m.ok {
		fmt.Fprintf(&b, "%s no position: %s after %d iterations\n",
			styleIconError.Render(iconError), m.solve.Status, m.solve.Iterations)
		b.WriteString(drawLinkage(m.Linkage, nil, m.Theta2, m.width, m.height))
		return b.String()
	}

	p := m.position
	fmt.Fprintf(&b, "θ3 %s  θ4 %s  μ %s  |det J| %s",
		StyleValue.Render(fmt.Sprintf("%8.3f°", p.Theta3)),
		StyleValue.Render(fmt.Sprintf("%8.3f°", p.Theta4)),
		StyleValue.Render(fmt.Sprintf("%6.2f°", p.TransmissionAngle)),
		StyleValue.Render(fmt.Sprintf("%.3g", p.Singularity.Determinant)))
	if p.Singularity.NearSingular {
		b.WriteString("  " + StyleWarning.Render("near-singular"))
	}
	b.WriteString("\n")
	b.WriteString(drawLinkage(m.Linkage, &p.Points, m.Theta2, m.width, m.height))
	return b.String()
}

func wrapDegrees(d int) int {
	return ((d % 360) + 360) % 360
}

// drawLinkage plots the linkage on a character grid. Without pts only the
// ground and the crank are drawn.
func drawLinkage(l *linkage.Linkage, pts *linkage.Points, theta2, width, height int) string {
	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	// The crank circle bounds the drawing together with the coupler reach.
	reach := l.Input() + l.Coupler()
	minX, maxX := -reach, math.Max(l.Fixed()+l.Output(), reach)
	minY, maxY := -math.Max(reach, l.Output()), math.Max(reach, l.Output())

	// Terminal cells are about twice as tall as wide.
	scale := math.Min(float64(width-1)/(maxX-minX), 2*float64(height-1)/(maxY-minY))
	cell := func(v linkage.Vec2) (int, int) {
		x := int(math.Round((v.X - minX) * scale))
		y := int(math.Round((maxY - v.Y) * scale / 2))
		return x, y
	}
	put := func(v linkage.Vec2, r rune) {
		x, y := cell(v)
		if y >= 0 && y < height && x >= 0 && x < width {
			grid[y][x] = r
		}
	}
	line := func(a, b linkage.Vec2, r rune) {
		n := int(math.Max(a.Add(b.Neg()).Norm()*scale, 1)) * 2
		for i := 0; i <= n; i++ {
			t := float64(i) / float64(n)
			put(a.Scale(1-t).Add(b.Scale(t)), r)
		}
	}

	a, d := linkage.Vec2{}, linkage.Vec2{X: l.Fixed()}
	line(a, d, '═')
	bPin := l.CrankPin(float64(theta2))
	line(a, bPin, '•')
	if pts != nil {
		line(pts.B, pts.C, '·')
		line(pts.D, pts.C, '•')
		put(pts.C, 'C')
	}
	put(a, 'A')
	put(bPin, 'B')
	put(d, 'D')

	rows := make([]string, height)
	for i, r := range grid {
		rows[i] = string(r)
	}
	return lipgloss.NewStyle().Foreground(colorGray).Render(strings.Join(rows, "\n"))
}

func (c *CLI) exploreCommand() *cobra.Command {
	var (
		flags linkageFlags
		angle int
	)

	cmd := &cobra.Command{
		Use:     "explore",
		Short:   "Step a linkage through its positions interactively",
		Example: `  fourbar explore --lengths 120,30,90,80`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lengths, err := flags.resolve(c)
			if err != nil {
				return err
			}
			l, err := linkage.New(lengths[0], lengths[1], lengths[2], lengths[3])
			if err != nil {
				return err
			}

			model := NewExploreModel(l, angle, flags.solverOptions()...)
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&angle, "angle", "a", 0, "initial input angle in degrees")
	return cmd
}
