// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/pitchup/internal/model"
	"github.com/verte-zerg/pitchup/internal/stats"
)

const (
	tabOverview = iota
	tabNotes
	tabResults
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Store is the part of the result store the stats UI reads and edits.
type Store interface {
	stats.Source
	DeleteResult(ctx context.Context, id int64) error
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	store Store
	cfg   model.StatsConfig

	report stats.Report
	errMsg string

	tabs        []string
	activeTab   int
	overview    viewport.Model
	noteTable   table.Model
	resultTable table.Model
	resultIDs   []int64

	detailMode bool
	detail     viewport.Model

	confirmDelete bool
	deleteID      int64

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	width  int
	height int
}

// NewModel constructs a stats UI model.
func NewModel(st Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store: st,
		cfg:   cfg,
		tabs:  []string{"Overview", "Notes", "Results"},
	}
	m.overview = viewport.New(0, 0)
	m.detail = viewport.New(0, 0)
	m.noteTable = newTable(noteColumns())
	m.resultTable = newTable(resultColumns())
	m.initInputs()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch {
		case m.filterMode:
			return m.updateFilter(msg)
		case m.confirmDelete:
			return m.updateConfirm(msg)
		case m.detailMode:
			return m.updateDetail(msg)
		}
		m.focusActiveTable()
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.refreshReport()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.refreshReport()
			return m, nil
		case "/":
			return m.startFilter()
		case "enter":
			if m.activeTab == tabResults {
				m.openDetail()
			}
			return m, nil
		case "d", "delete":
			if m.activeTab == tabResults {
				if id, ok := m.selectedResultID(); ok {
					m.confirmDelete = true
					m.deleteID = id
				}
			}
			return m, nil
		case "g", "home":
			switch m.activeTab {
			case tabNotes:
				m.noteTable.GotoTop()
			case tabResults:
				m.resultTable.GotoTop()
			default:
				m.overview.GotoTop()
			}
			return m, nil
		case "G", "end":
			switch m.activeTab {
			case tabNotes:
				m.noteTable.GotoBottom()
			case tabResults:
				m.resultTable.GotoBottom()
			default:
				m.overview.GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		switch m.activeTab {
		case tabNotes:
			m.noteTable, cmd = m.noteTable.Update(msg)
		case tabResults:
			m.resultTable, cmd = m.resultTable.Update(msg)
		default:
			m.overview, cmd = m.overview.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.detailMode {
		return fitLines(m.renderDetail(), m.width, m.height)
	}
	if m.confirmDelete {
		return fitLines(m.renderConfirm(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
		newFilterInput("Notes (e.g. C,F#): "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	if m.cfg.Since != nil {
		m.filterInputs[0].SetValue(m.cfg.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[0].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[1].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[1].SetValue("")
	}
	m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.CurveWindow))
	m.filterInputs[3].SetValue(strings.TrimSpace(m.cfg.Notes))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.detail.Width = modalInnerWidth(m.width)
	m.detail.Height = maxInt(1, m.height-8)
	for _, t := range []*table.Model{&m.noteTable, &m.resultTable} {
		t.SetWidth(m.width)
		t.SetHeight(maxInt(1, bodyHeight-1))
	}
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	m.focusActiveTable()
}

func (m *Model) focusActiveTable() {
	m.noteTable.Blur()
	m.resultTable.Blur()
	switch m.activeTab {
	case tabNotes:
		m.noteTable.Focus()
	case tabResults:
		m.resultTable.Focus()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	notes := strings.TrimSpace(m.cfg.Notes)
	if notes == "" {
		notes = "all"
	}
	summary := fmt.Sprintf("Settings: since=%s  last=%s  window=%d  notes=%s", since, last, m.cfg.CurveWindow, notes)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Quit: q"
	if m.activeTab == tabResults {
		help = "Nav: left/right  Select: up/down  Open: enter  Delete: d  Settings: /  Quit: q"
	}
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	switch m.activeTab {
	case tabNotes:
		switch {
		case len(m.report.Results) == 0:
			return fitLines("No results found.", m.width, height)
		case len(m.report.NoteAggsWindow) == 0:
			return fitLines("No note stats found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.noteTable.View()), m.width, height)
	case tabResults:
		if len(m.report.Results) == 0 {
			return fitLines("No results found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.resultTable.View()), m.width, height)
	}
	return fitLines(m.overview.View(), m.width, height)
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load stats.")
		return
	}
	m.errMsg = ""
	m.report = report
	m.noteTable.SetRows(noteRows(report.NoteAggsWindow))
	m.resultIDs = nil
	m.resultTable = m.withResultRows(report.Results)
	m.updateLayout()
	m.renderTabContents()
}

func (m *Model) withResultRows(results []model.ChallengeResult) table.Model {
	rows := make([]table.Row, 0, len(results))
	for i := len(results) - 1; i >= 0; i-- {
		r := results[i]
		m.resultIDs = append(m.resultIDs, r.ID)
		rows = append(rows, resultRow(r))
	}
	t := m.resultTable
	t.SetRows(rows)
	if t.Cursor() >= len(rows) {
		t.SetCursor(maxInt(0, len(rows)-1))
	}
	return t
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		m.overview.SetContent("Failed to load stats.")
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report.Results, m.cfg.CurveWindow, width))
}

func renderOverview(results []model.ChallengeResult, window, width int) string {
	if len(results) == 0 {
		return "No results found."
	}
	summary := renderSummaryCards(results, width)
	var buf bytes.Buffer
	if err := stats.RenderCurvesWithWidth(&buf, results, window, width); err != nil {
		return fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func renderSummaryCards(results []model.ChallengeResult, width int) string {
	var totalScore, totalTime, totalStab, totalAcc, best float64
	for _, r := range results {
		totalScore += r.TotalScore
		totalTime += r.AverageTimeToReach
		totalStab += r.AverageStability
		totalAcc += r.AverageAccuracy
		if r.TotalScore > best {
			best = r.TotalScore
		}
	}
	count := float64(len(results))
	cards := []string{
		metricCard("Sessions", strconv.Itoa(len(results))),
		metricCard("Avg Score", fmt.Sprintf("%.1f%%", totalScore/count)),
		metricCard("Best Score", fmt.Sprintf("%.1f%%", best)),
		metricCard("Avg Time", stats.FormatMs(totalTime/count)),
		metricCard("Avg Stability", fmt.Sprintf("%.1f%%", totalStab/count)),
		metricCard("Avg Accuracy", fmt.Sprintf("%.1f%%", totalAcc/count)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
}

func noteColumns() []table.Column {
	return []table.Column{
		{Title: "Note", Width: 4},
		{Title: "Success", Width: 8},
		{Title: "Avg Time", Width: 9},
		{Title: "Stability", Width: 9},
		{Title: "Accuracy", Width: 9},
		{Title: "Reached", Width: 7},
		{Title: "Attempts", Width: 8},
	}
}

func resultColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Date", Width: 16},
		{Title: "Score", Width: 7},
		{Title: "Avg Time", Width: 9},
		{Title: "Stability", Width: 9},
		{Title: "Accuracy", Width: 9},
		{Title: "Notes", Width: 5},
	}
}

// noteRows orders aggregates weakest first.
func noteRows(aggs []model.NoteAggregate) []table.Row {
	sorted := append([]model.NoteAggregate(nil), aggs...)
	sort.Slice(sorted, func(i, j int) bool {
		si, sj := stats.SuccessRate(sorted[i]), stats.SuccessRate(sorted[j])
		if si == sj {
			return sorted[i].PitchClass < sorted[j].PitchClass
		}
		return si < sj
	})
	rows := make([]table.Row, 0, len(sorted))
	for _, agg := range sorted {
		rows = append(rows, table.Row(stats.NoteRow(agg)))
	}
	return rows
}

func resultRow(r model.ChallengeResult) table.Row {
	return table.Row{
		strconv.FormatInt(r.ID, 10),
		r.Date.Local().Format("2006-01-02 15:04"),
		fmt.Sprintf("%.1f%%", r.TotalScore),
		stats.FormatMs(r.AverageTimeToReach),
		fmt.Sprintf("%.1f%%", r.AverageStability),
		fmt.Sprintf("%.1f%%", r.AverageAccuracy),
		strconv.Itoa(len(r.Attempts)),
	}
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) selectedResultID() (int64, bool) {
	idx := m.resultTable.Cursor()
	if idx < 0 || idx >= len(m.resultIDs) {
		return 0, false
	}
	return m.resultIDs[idx], true
}

func (m *Model) findResult(id int64) (model.ChallengeResult, bool) {
	for _, r := range m.report.Results {
		if r.ID == id {
			return r, true
		}
	}
	return model.ChallengeResult{}, false
}

func (m *Model) openDetail() {
	id, ok := m.selectedResultID()
	if !ok {
		return
	}
	r, ok := m.findResult(id)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := stats.RenderResult(&buf, r); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.detail.SetContent(strings.TrimRight(buf.String(), "\n"))
	m.detail.GotoTop()
	m.detailMode = true
}

func (m *Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "q":
		m.detailMode = false
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *Model) renderDetail() string {
	body := []string{
		m.detail.View(),
		"",
		headerStyle.Render("Scroll: up/down  Close: esc"),
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirmDelete = false
		if err := m.store.DeleteResult(context.Background(), m.deleteID); err != nil {
			m.errMsg = fmt.Sprintf("failed to delete result %d: %v", m.deleteID, err)
			return m, nil
		}
		m.refreshReport()
		return m, nil
	case "n", "N", "esc", "q":
		m.confirmDelete = false
	}
	return m, nil
}

func (m *Model) renderConfirm() string {
	body := []string{
		cardValueStyle.Render(fmt.Sprintf("Delete result #%d?", m.deleteID)),
		headerStyle.Render("y to delete / n to cancel"),
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	sinceInput := strings.TrimSpace(m.filterInputs[0].Value())
	var since *time.Time
	if sinceInput != "" {
		parsed, err := time.ParseInLocation("2006-01-02", sinceInput, time.Local)
		if err != nil {
			return fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		since = &parsed
	}

	lastInput := strings.TrimSpace(m.filterInputs[1].Value())
	last := 0
	if lastInput != "" {
		parsed, err := strconv.Atoi(lastInput)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		last = parsed
	}

	windowInput := strings.TrimSpace(m.filterInputs[2].Value())
	window := 1
	if windowInput != "" {
		parsed, err := strconv.Atoi(windowInput)
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid curve window (use integer >= 1)")
		}
		window = parsed
	}

	notes := strings.TrimSpace(m.filterInputs[3].Value())
	if _, err := stats.ParseNoteFilter(notes); err != nil {
		return err
	}

	m.cfg = model.StatsConfig{
		Since:       since,
		Last:        last,
		CurveWindow: window,
		Notes:       notes,
	}
	return nil
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func modalWidth(width int) int {
	return maxInt(40, minInt(width-4, 100))
}

func modalInnerWidth(width int) int {
	w := modalWidth(width) - 6 // 2 border + 4 padding
	if w < 10 {
		return 10
	}
	return w
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
