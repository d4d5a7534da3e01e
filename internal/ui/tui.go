package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/noamulm-dev/Tanach100/internal/errors"
)

// TUIRenderer shows search progress with bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *searchModel
	tracker *ProgressTracker
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer. It fails for non-TTY output.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	tracker := NewProgressTracker()
	model := newSearchModel(tracker)
	model.styles = GetStyles(cfg.NoColor)
	model.onCancel = cfg.OnCancel

	return &TUIRenderer{
		cfg:     cfg,
		tracker: tracker,
		model:   model,
		done:    make(chan struct{}),
	}, nil
}

// Start implements Renderer. The program exits when ctx ends.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	ctx, r.cancel = context.WithCancel(ctx)

	var opts []tea.ProgramOption
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	opts = append(opts, tea.WithContext(ctx))

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.Update(event.Percent, event.Message)
	if r.program != nil {
		r.program.Send(progressMsg(event))
	}
}

// Fail implements Renderer.
func (r *TUIRenderer) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.Fail(err)
	if r.program != nil {
		r.program.Send(failMsg{err: err})
	}
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.Update(100, "")
	if r.program != nil {
		r.program.Send(completeMsg(s))
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Quit()
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
		}
	}
	if r.cancel != nil {
		r.cancel()
	}
	return nil
}

type progressMsg ProgressEvent
type failMsg struct{ err error }
type completeMsg Summary
type tickMsg time.Time

// searchModel is the bubbletea model for one search.
type searchModel struct {
	tracker     *ProgressTracker
	width       int
	quitting    bool
	complete    bool
	summary     Summary
	spinner     spinner.Model
	progressBar progress.Model
	styles      Styles
	onCancel    func()
}

func newSearchModel(tracker *ProgressTracker) *searchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGold))

	p := progress.New(
		progress.WithSolidFill(ColorGold),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &searchModel{
		tracker:     tracker,
		spinner:     s,
		progressBar: p,
		styles:      DefaultStyles(),
		width:       80,
	}
}

// Init implements tea.Model.
func (m *searchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *searchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			if m.onCancel != nil {
				m.onCancel()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(20, msg.Width-24)

	case progressMsg:
		return m, nil

	case failMsg:
		m.quitting = true
		return m, tea.Quit

	case completeMsg:
		m.complete = true
		m.summary = Summary(msg)
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *searchModel) View() string {
	stats := m.tracker.Stats()

	if m.complete {
		return m.renderComplete()
	}
	if m.quitting {
		if stats.Err != nil && !errors.IsAborted(stats.Err) {
			return m.styles.Error.Render("✗ "+stats.Err.Error()) + "\n"
		}
		return "Search cancelled.\n"
	}

	lines := []string{
		m.renderStages(stats.Stage),
		m.renderProgress(stats),
		m.styles.Dim.Render("q to cancel"),
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *searchModel) renderStages(current Stage) string {
	var parts []string
	for _, s := range []Stage{StageLoading, StageLiteral, StageELS} {
		var icon string
		var style lipgloss.Style
		switch {
		case s < current:
			icon, style = "●", m.styles.Success
		case s == current:
			icon, style = m.spinner.View(), m.styles.Active
		default:
			icon, style = "○", m.styles.Dim
		}
		parts = append(parts, style.Render(icon+" "+s.String()))
	}
	return strings.Join(parts, m.styles.Dim.Render(" → "))
}

func (m *searchModel) renderProgress(stats ProgressStats) string {
	bar := m.progressBar.ViewAs(float64(stats.Percent) / 100)
	line := fmt.Sprintf("%s  %s", bar, m.styles.Active.Render(fmt.Sprintf("%3d%%", stats.Percent)))
	if stats.ETA > 0 {
		line += m.styles.Label.Render("  ETA " + formatDuration(stats.ETA))
	}
	if stats.Message != "" {
		line += "\n" + m.styles.Label.Render(truncate(stats.Message, max(10, m.width-2)))
	}
	return line
}

func (m *searchModel) renderComplete() string {
	s := m.summary
	line := m.styles.Success.Render("✓ ") +
		m.styles.Active.Render(fmt.Sprintf("%d results", s.Results)) +
		m.styles.Label.Render(fmt.Sprintf(" over %d letters in %s", s.Letters, formatDuration(s.Duration)))
	if s.Truncated {
		line += m.styles.Warning.Render(" (truncated)")
	}
	return line + "\n"
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// truncate shortens s to at most maxLen runes, ending with an ellipsis.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return "…"
	}
	return string(r[:maxLen-1]) + "…"
}

var _ Renderer = (*TUIRenderer)(nil)
