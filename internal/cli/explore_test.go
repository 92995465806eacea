package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/fourbar/pkg/linkage"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m ExploreModel, keys ...string) ExploreModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(ExploreModel)
	}
	return m
}

func TestExploreNavigation(t *testing.T) {
	m := NewExploreModel(linkage.MustNew(120, 30, 90, 80), 0)
	if !m.ok {
		t.Fatal("crank-rocker should solve at θ2 = 0")
	}

	m = press(t, m, "right", "right")
	if m.Theta2 != 2 {
		t.Errorf("θ2 = %d, want 2", m.Theta2)
	}
	m = press(t, m, "left", "left", "left")
	if m.Theta2 != 359 {
		t.Errorf("θ2 should wrap to 359, got %d", m.Theta2)
	}

	m = press(t, m, "up", "up")
	if m.Step != 5 {
		t.Errorf("step = %d, want 5", m.Step)
	}
	m = press(t, m, "down", "down", "down")
	if m.Step != 1 {
		t.Errorf("step should stop at 1, got %d", m.Step)
	}

	m = press(t, m, "tab")
	if m.Configuration != linkage.Crossed {
		t.Errorf("tab should switch to crossed, got %s", m.Configuration)
	}
	if m.position.Configuration != linkage.Crossed {
		t.Error("position should be re-solved on branch change")
	}
	m = press(t, m, "0")
	if m.Theta2 != 0 {
		t.Errorf("0 should reset θ2, got %d", m.Theta2)
	}
}

func TestExploreQuit(t *testing.T) {
	m := NewExploreModel(linkage.MustNew(120, 30, 90, 80), 0)
	for _, k := range []string{"q", "esc"} {
		var msg tea.KeyMsg
		if k == "esc" {
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		} else {
			msg = key(k)
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("%s should quit", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s should return tea.Quit", k)
		}
	}
}

func TestExploreView(t *testing.T) {
	m := NewExploreModel(linkage.MustNew(120, 30, 90, 80), 15)
	view := m.View()
	for _, want := range []string{"crank-rocker", "θ2", "47.470°", "open"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	for _, joint := range []string{"A", "B", "C", "D"} {
		if !strings.Contains(view, joint) {
			t.Errorf("drawing missing joint %s", joint)
		}
	}
}

func TestExploreViewNoPosition(t *testing.T) {
	m := NewExploreModel(linkage.MustNew(6, 1, 2, 3), 90)
	if m.ok {
		t.Fatal("θ2 = 90 should not assemble")
	}
	if view := m.View(); !strings.Contains(view, "no position") {
		t.Errorf("view should report the failure:\n%s", view)
	}
}

func TestExploreWindowResize(t *testing.T) {
	m := NewExploreModel(linkage.MustNew(120, 30, 90, 80), 0)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 10, Height: 5})
	m = next.(ExploreModel)
	if m.width < 24 || m.height < 8 {
		t.Errorf("size should be clamped, got %dx%d", m.width, m.height)
	}
	_ = m.View()
}

func TestWrapDegrees(t *testing.T) {
	for in, want := range map[int]int{0: 0, 359: 359, 360: 0, -1: 359, 725: 5, -360: 0} {
		if got := wrapDegrees(in); got != want {
			t.Errorf("wrapDegrees(%d) = %d, want %d", in, got, want)
		}
	}
}
