// Package tui provides the Bubble Tea pitch challenge interface.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/pitchup/internal/logging"
	"github.com/verte-zerg/pitchup/internal/model"
	"github.com/verte-zerg/pitchup/internal/pitchsource"
	"github.com/verte-zerg/pitchup/internal/practice"
	statsPkg "github.com/verte-zerg/pitchup/internal/stats"
)

const tickInterval = 100 * time.Millisecond

type frameMsg pitchsource.Frame

type sourceDoneMsg struct{}

type resultsMsg []model.ChallengeResult

type tickMsg time.Time

// Model implements the Bubble Tea challenge UI.
type Model struct {
	svc     *practice.Service
	frames  <-chan pitchsource.Frame
	results chan []model.ChallengeResult
	unsub   func()
	log     *logging.Logger
	now     func() time.Time

	width  int
	height int

	state      model.ChallengeState
	lastFrame  pitchsource.Frame
	hasFrame   bool
	sourceDone bool
	err        error

	lastScore   float64
	lastTime    float64
	hasLast     bool
	allScore    float64
	allTime     float64
	resultCount int
}

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	targetStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	cursorStyle    = targetStyle.Copy().Underline(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs the challenge UI. frames may be nil when no pitch
// source is attached; the session then only advances on timeouts.
func NewModel(svc *practice.Service, frames <-chan pitchsource.Frame, log *logging.Logger) *Model {
	m := &Model{
		svc:     svc,
		frames:  frames,
		results: make(chan []model.ChallengeResult, 1),
		log:     logging.OrNop(log).With("component", "tui"),
		now:     time.Now,
	}
	m.unsub = svc.SubscribeResults(func(list []model.ChallengeResult) {
		// Keep only the newest list when the UI falls behind.
		for {
			select {
			case m.results <- list:
				return
			default:
			}
			select {
			case <-m.results:
			default:
			}
		}
	})
	m.applyResults(svc.Results())
	m.state = svc.Engine().State()
	return m
}

// Close detaches the model from the service.
func (m *Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(waitForFrame(m.frames), waitForResults(m.results), tick())
}

func waitForFrame(frames <-chan pitchsource.Frame) tea.Cmd {
	if frames == nil {
		return nil
	}
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return sourceDoneMsg{}
		}
		return frameMsg(f)
	}
}

func waitForResults(ch <-chan []model.ChallengeResult) tea.Cmd {
	return func() tea.Msg {
		return resultsMsg(<-ch)
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case frameMsg:
		m.handleFrame(pitchsource.Frame(msg))
		return m, waitForFrame(m.frames)
	case sourceDoneMsg:
		m.sourceDone = true
		return m, nil
	case resultsMsg:
		m.applyResults(msg)
		return m, waitForResults(m.results)
	case tickMsg:
		m.svc.CheckTimeout()
		m.state = m.svc.Engine().State()
		return m, tick()
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.svc.Cancel()
		return m, tea.Quit
	case tea.KeyEsc:
		m.svc.Cancel()
	case tea.KeyEnter, tea.KeySpace:
		if !m.state.Active {
			m.setErr(m.svc.Start())
		}
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			m.svc.Cancel()
			return m, tea.Quit
		case "r":
			m.setErr(m.svc.Restart())
		}
	}
	m.state = m.svc.Engine().State()
	return m, nil
}

func (m *Model) handleFrame(f pitchsource.Frame) {
	m.lastFrame = f
	m.hasFrame = f.Voiced()
	if f.Voiced() {
		m.setErr(m.svc.ProcessSample(f.Sample()))
	} else {
		m.svc.CheckTimeout()
	}
	m.state = m.svc.Engine().State()
}

func (m *Model) setErr(err error) {
	m.err = err
	if err != nil {
		m.log.Warn("challenge call failed", "error", err)
	}
}

func (m *Model) applyResults(list []model.ChallengeResult) {
	m.resultCount = len(list)
	if len(list) == 0 {
		m.hasLast = false
		m.allScore, m.allTime = 0, 0
		return
	}
	last := list[len(list)-1]
	m.lastScore = last.TotalScore
	m.lastTime = last.AverageTimeToReach
	m.hasLast = true
	var score, avgTime float64
	for _, r := range list {
		score += r.TotalScore
		avgTime += r.AverageTimeToReach
	}
	m.allScore = score / float64(len(list))
	m.allTime = avgTime / float64(len(list))
}

// View implements tea.Model.
func (m *Model) View() string {
	content := m.renderBody()
	if m.width == 0 || m.height == 0 {
		return content
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	content = lipgloss.NewStyle().Width(contentWidth).Align(lipgloss.Center).Render(m.renderBodyWidth(contentWidth))
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderBody() string {
	return m.renderBodyWidth(0)
}

func (m *Model) renderBodyWidth(width int) string {
	var lines []string
	if len(m.state.Notes) > 0 {
		lines = append(lines, wrapCells(buildNoteCells(m.state), width), "")
	}
	if target, ok := m.state.TargetNote(); ok && m.state.Active {
		lines = append(lines, "Sing "+targetStyle.Render(target.String()))
		lines = append(lines, m.renderHeard())
		elapsed := m.now().Sub(m.state.NoteStartTime)
		lines = append(lines, pendingStyle.Render(fmt.Sprintf("Note %d/%d  %.1fs  %d samples",
			m.state.CurrentNoteIndex+1, len(m.state.Notes), elapsed.Seconds(), len(m.state.FrequencySamples))))
	} else {
		lines = append(lines, m.renderIdle())
	}
	if m.err != nil {
		lines = append(lines, "", incorrectStyle.Render(m.err.Error()))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderHeard() string {
	if !m.hasFrame {
		return pendingStyle.Render("listening…")
	}
	f := m.lastFrame
	return fmt.Sprintf("Heard %s %+d¢  %.1f Hz\n%s", f.Note, f.Cents, f.Frequency, centsMeter(f.Cents, 21))
}

func (m *Model) renderIdle() string {
	var lines []string
	if m.state.Complete() && len(m.state.Attempts) == len(m.state.Notes) {
		reached := 0
		for _, a := range m.state.Attempts {
			if a.ReachedNote {
				reached++
			}
		}
		lines = append(lines, fmt.Sprintf("Done: %d of %d notes reached", reached, len(m.state.Notes)))
	}
	switch {
	case m.frames == nil:
		lines = append(lines, pendingStyle.Render("No pitch source attached; pass --source"))
	case m.sourceDone:
		lines = append(lines, pendingStyle.Render("Pitch source ended"))
	}
	lines = append(lines, pendingStyle.Render("space start · r restart · esc cancel · q quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	progress := 0
	if len(m.state.Notes) > 0 {
		progress = int(float64(len(m.state.Attempts)) / float64(len(m.state.Notes)) * 100)
	}
	segments := []string{fmt.Sprintf("Progress %d%%", progress)}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f%% · %s", m.lastScore, statsPkg.FormatMs(m.lastTime)))
	}
	if m.resultCount > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f%% · %s", m.allScore, statsPkg.FormatMs(m.allTime)))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
