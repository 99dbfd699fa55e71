package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	glam "github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	runtimepkg "github.com/asynkron/applypatch/internal/core/runtime"
	"github.com/asynkron/applypatch/pkg/patch"
)

// ReportMarkdown describes a resolved patch as markdown: a table of touched paths,
// the accumulated fuzz and the commit rendered back as patch text.
func ReportMarkdown(report *runtimepkg.Report) string {
	if report == nil || report.Commit == nil {
		return "_No changes._\n"
	}

	var b strings.Builder
	b.WriteString("## Patch review\n\n")
	if len(report.Commit.Changes) == 0 {
		b.WriteString("_No changes._\n")
		return b.String()
	}

	b.WriteString("| Status | Path | Moved to |\n|---|---|---|\n")
	for _, path := range report.Commit.Paths() {
		change := report.Commit.Changes[path]
		moved := ""
		if change.MovePath != "" {
			moved = "`" + change.MovePath + "`"
		}
		fmt.Fprintf(&b, "| %s | `%s` | %s |\n", change.Kind.Status(), path, moved)
	}

	fuzz := 0
	if report.Result != nil {
		fuzz = report.Result.Fuzz
	}
	fmt.Fprintf(&b, "\nFuzz: **%d**", fuzz)
	if fuzz == 0 {
		b.WriteString(" (exact match)")
	}
	b.WriteString("\n")
	if report.FuzzWarning {
		b.WriteString("\n> Context matched only approximately. Check the changes before applying.\n")
	}

	if text, err := patch.RenderPatch(report.Commit); err == nil {
		fence := codeFence(text)
		b.WriteString("\n" + fence + "diff\n")
		b.WriteString(text)
		b.WriteString(fence + "\n")
	}
	return b.String()
}

// codeFence returns a backtick fence longer than any backtick run in text.
func codeFence(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}

type model struct {
	report   *runtimepkg.Report
	markdown string

	vp     viewport.Model
	glam   *glam.TermRenderer
	width  int
	height int
	ready  bool

	approved bool

	border lipgloss.Style
	header lipgloss.Style
	help   lipgloss.Style
}

func newModel(report *runtimepkg.Report) *model {
	m := &model{
		report:   report,
		markdown: ReportMarkdown(report),
		border:   lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")),
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000000")).
			PaddingLeft(1).
			PaddingRight(1),
		help: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
	_ = m.rebuildRenderer(80)
	return m
}

// rebuildRenderer recreates the Glamour renderer with the given wrap width.
func (m *model) rebuildRenderer(wrap int) error {
	if wrap < 10 {
		wrap = 10
	}
	r, err := glam.NewTermRenderer(
		glam.WithStylePath("dark"), // fixed style to avoid OSC queries
		glam.WithWordWrap(wrap),
	)
	if err != nil {
		return err
	}
	m.glam = r
	return nil
}

func (m *model) refresh() {
	content := m.markdown
	if m.glam != nil {
		if rendered, err := m.glam.Render(m.markdown); err == nil {
			content = rendered
		}
	}
	m.vp.SetContent(content)
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// header and help lines plus the top and bottom border
		m.vp.Width = max(msg.Width-2, 1)
		m.vp.Height = max(msg.Height-4, 1)
		_ = m.rebuildRenderer(m.vp.Width - 2)
		m.refresh()
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.approved = false
			return m, tea.Quit
		case tea.KeyRunes:
			switch strings.ToLower(string(msg.Runes)) {
			case "y":
				m.approved = true
				return m, tea.Quit
			case "n", "q":
				m.approved = false
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "Preparing review…"
	}
	files, fuzz := 0, 0
	if m.report != nil && m.report.Commit != nil {
		files = len(m.report.Commit.Changes)
	}
	if m.report != nil && m.report.Result != nil {
		fuzz = m.report.Result.Fuzz
	}
	title := m.header.
		Background(lipgloss.Color(fuzzColor(fuzz))).
		Render(fmt.Sprintf("%d file(s) · fuzz %d", files, fuzz))
	help := m.help.Render("y apply · n/esc cancel · ↑/↓ scroll")
	return title + "\n" + m.border.Render(m.vp.View()) + "\n" + help
}

// fuzzColor maps accumulated fuzz onto a green to red hue.
func fuzzColor(fuzz int) string {
	const redAt = 200.0
	ratio := clamp01(float64(fuzz) / redAt)
	return hslToHex(120*(1-ratio), 0.85, 0.5)
}

// hslToHex converts H,S,L (H in [0,360), S/L in [0,1]) to a #RRGGBB string.
func hslToHex(h, s, l float64) string {
	r, g, b := hslToRGB(h, s, l)
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60.0
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r1, g1, b1 float64
	switch {
	case 0 <= hp && hp < 1:
		r1, g1, b1 = c, x, 0
	case 1 <= hp && hp < 2:
		r1, g1, b1 = x, c, 0
	case 2 <= hp && hp < 3:
		r1, g1, b1 = 0, c, x
	case 3 <= hp && hp < 4:
		r1, g1, b1 = 0, x, c
	case 4 <= hp && hp < 5:
		r1, g1, b1 = x, 0, c
	default:
		r1, g1, b1 = c, 0, x
	}
	m := l - c/2
	r := uint8(clamp01(r1+m) * 255)
	g := uint8(clamp01(g1+m) * 255)
	b := uint8(clamp01(b1+m) * 255)
	return r, g, b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Review shows the report full screen and reports whether the user approved it.
// Extra program options let callers swap the terminal input and output.
func Review(ctx context.Context, report *runtimepkg.Report, opts ...tea.ProgramOption) (bool, error) {
	if report == nil || report.Commit == nil {
		return false, errors.New("nothing to review")
	}

	// Prevent OSC background color queries from contaminating stdin by
	// explicitly setting color profile and background for lipgloss/termenv.
	lipgloss.SetColorProfile(termenv.TrueColor)
	lipgloss.SetHasDarkBackground(true)

	options := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	final, err := tea.NewProgram(newModel(report), options...).Run()
	if err != nil {
		return false, fmt.Errorf("review: %w", err)
	}
	m, ok := final.(*model)
	if !ok {
		return false, fmt.Errorf("review: unexpected model %T", final)
	}
	return m.approved, nil
}
