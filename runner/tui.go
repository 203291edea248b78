package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/rlch/formrun"
)

// TUIFormatter implements Formatter with an animated terminal UI.
type TUIFormatter struct {
	program  *tea.Program
	model    *tuiModel
	w        io.Writer
	mu       sync.Mutex
	finished bool
}

// NewTUIFormatter creates a TUI formatter with animations.
func NewTUIFormatter(w io.Writer, suites []SuiteList) *TUIFormatter {
	model := newTUIModel(suites)

	opts := []tea.ProgramOption{
		tea.WithOutput(w),
		tea.WithoutSignalHandler(),
		tea.WithAltScreen(), // Use alternate screen so animation doesn't pollute scrollback
	}

	// Non-TTY mode - disable input
	if f, ok := w.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		opts = append(opts, tea.WithInput(nil))
	}

	return &TUIFormatter{
		program: tea.NewProgram(model, opts...),
		model:   model,
		w:       w,
	}
}

// Start begins the TUI event loop. Call this before running cases.
func (t *TUIFormatter) Start() error {
	go func() {
		_, _ = t.program.Run()
	}()

	// Give the program a moment to initialize
	time.Sleep(20 * time.Millisecond)

	return nil
}

// Format sends an event to the TUI.
func (t *TUIFormatter) Format(event Event, _ *Result) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		return nil
	}

	t.program.Send(caseEventMsg(event))

	return nil
}

// Summary waits for completion and renders final output.
func (t *TUIFormatter) Summary(result *Result) error {
	t.mu.Lock()
	t.finished = true
	t.mu.Unlock()

	t.program.Send(doneMsg{result: result})
	time.Sleep(50 * time.Millisecond)

	// Quit and wait for program to exit cleanly
	t.program.Quit()
	time.Sleep(50 * time.Millisecond)

	// The TUI used the alternate screen, so exiting it returns us to the
	// main screen with clean scrollback.
	_, err := fmt.Fprintln(t.w, t.model.FinalView())

	return err
}

// -----------------------------------------------------------------------------
// Case list - built from suites before cases run
// -----------------------------------------------------------------------------

// nodeStatus tracks the execution state of a case.
type nodeStatus int

const (
	statusPending nodeStatus = iota
	statusRunning
	statusPass
	statusFail
	statusSkip
	statusError
)

// caseNode is one row of the case list.
type caseNode struct {
	id          string
	description string
	knownDefect string
	status      nodeStatus
	state       State

	elapsed      time.Duration
	observations []string
	failure      *formrun.AssertionFailure
	err          error
}

// SuiteList holds a suite's cases in display order.
type SuiteList struct {
	path  string
	cases []*caseNode
	idx   map[string]*caseNode // "suite::case" -> node lookup
}

// BuildSuiteList creates the display list for a suite.
func BuildSuiteList(suite *formrun.Suite) SuiteList {
	path := suitePath(suite)
	sl := SuiteList{
		path: path,
		idx:  make(map[string]*caseNode),
	}

	for _, c := range suite.Cases {
		n := &caseNode{id: c.ID, description: c.Description, knownDefect: c.KnownDefect}
		sl.cases = append(sl.cases, n)
		sl.idx[path+"::"+c.ID] = n
	}

	return sl
}

// BuildSelectedSuiteList is BuildSuiteList restricted to the cases a run with
// the same --run pattern and --where expression executes.
func BuildSelectedSuiteList(suite *formrun.Suite, pattern, where string) (SuiteList, error) {
	cases, err := Select(suite, pattern, where)
	if err != nil {
		return SuiteList{}, err
	}

	narrowed := *suite
	narrowed.Cases = cases

	return BuildSuiteList(&narrowed), nil
}

// -----------------------------------------------------------------------------
// Bubbletea Model
// -----------------------------------------------------------------------------

// tuiModel is the bubbletea model for the runner UI.
type tuiModel struct {
	styles  *Styles
	spinner spinner.Model

	width  int
	height int

	suites []SuiteList
	allIdx map[string]*caseNode // combined index across all suites

	counters counters

	startTime time.Time
	endTime   time.Time

	finalResult *Result
	isDone      bool
}

type counters struct {
	total   int
	passed  int
	failed  int
	skipped int
	errors  int
}

// Messages
type (
	tickMsg      time.Time
	caseEventMsg Event
	doneMsg      struct{ result *Result }
)

func newTUIModel(suites []SuiteList) *tuiModel {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: SpinnerFrames(),
		FPS:    time.Second / 10,
	}
	s.Style = DefaultStyles().Running

	allIdx := make(map[string]*caseNode)

	for i := range suites {
		for key, node := range suites[i].idx {
			allIdx[key] = node
		}
	}

	return &tuiModel{
		styles:    DefaultStyles(),
		spinner:   s,
		suites:    suites,
		allIdx:    allIdx,
		startTime: time.Now(),
		width:     80,
		height:    24,
		counters:  counters{total: len(allIdx)},
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.tick(),
	)
}

func (m *tuiModel) tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.QuitMsg:
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		return m, nil

	case tickMsg:
		if !m.isDone {
			cmds = append(cmds, m.tick())
		}

	case spinner.TickMsg:
		if !m.isDone {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case caseEventMsg:
		m.handleEvent(Event(msg))

	case doneMsg:
		m.isDone = true
		m.endTime = time.Now()
		m.finalResult = msg.result
	}

	return m, tea.Batch(cmds...)
}

func (m *tuiModel) handleEvent(event Event) {
	node, ok := m.allIdx[event.ID()]
	if !ok {
		return // Filtered out or unknown case
	}

	switch event.Action {
	case ActionRun:
		node.status = statusRunning
		node.state = StatePending

	case ActionState:
		node.state = event.State

	case ActionOutput:
		node.observations = append(node.observations, event.Output)

	case ActionPass:
		node.status = statusPass
		node.elapsed = event.Elapsed
		m.counters.passed++

	case ActionFail:
		node.status = statusFail
		node.elapsed = event.Elapsed
		node.failure = event.Failure
		m.counters.failed++

	case ActionSkip:
		node.status = statusSkip
		node.elapsed = event.Elapsed
		m.counters.skipped++

	case ActionError:
		node.status = statusError
		node.elapsed = event.Elapsed
		node.state = event.State
		node.err = event.Error
		m.counters.errors++
	}
}

// clearEOL is the ANSI escape sequence to clear from cursor to end of line.
const clearEOL = "\033[K"

// FinalView renders the complete final output for printing after the TUI exits.
func (m *tuiModel) FinalView() string {
	lines := m.body()

	lines = append(lines, "")
	lines = append(lines, m.renderSummary())

	return strings.Join(lines, "\n")
}

func (m *tuiModel) View() string {
	lines := m.body()

	if m.isDone {
		lines = append(lines, "")
		lines = append(lines, m.renderSummary())
	}

	// Add clear-to-EOL to each line to prevent rendering artifacts
	for i := range lines {
		lines[i] += clearEOL
	}

	return strings.Join(lines, "\n") + "\n"
}

func (m *tuiModel) body() []string {
	lines := []string{m.renderHeader(), m.renderProgress(), ""}

	for _, sl := range m.suites {
		listLines := strings.Split(strings.TrimSuffix(m.renderList(sl), "\n"), "\n")
		lines = append(lines, listLines...)
	}

	return lines
}

func (m *tuiModel) renderHeader() string {
	logo := m.styles.Bold.Render("formrun")
	subtitle := m.styles.Dim.Render(" test")

	var status string

	switch {
	case m.isDone && (m.counters.failed > 0 || m.counters.errors > 0):
		status = m.styles.Fail.Render("FAIL")
	case m.isDone:
		status = m.styles.Pass.Render("PASS")
	default:
		if n := m.running(); n != nil {
			status = m.styles.Running.Render(fmt.Sprintf("%s %s", n.id, n.state))
		} else {
			status = m.styles.Dim.Render("starting")
		}
	}

	return fmt.Sprintf("%s%s  %s", logo, subtitle, status)
}

func (m *tuiModel) running() *caseNode {
	for _, sl := range m.suites {
		for _, n := range sl.cases {
			if n.status == statusRunning {
				return n
			}
		}
	}

	return nil
}

func (m *tuiModel) renderProgress() string {
	done := m.counters.passed + m.counters.failed + m.counters.skipped + m.counters.errors
	total := m.counters.total

	if total == 0 {
		total = 1
	}

	pct := float64(done) / float64(total)

	elapsed := time.Since(m.startTime)
	if !m.endTime.IsZero() {
		elapsed = m.endTime.Sub(m.startTime)
	}

	elapsedStr := m.styles.Dim.Render(fmt.Sprintf("[%s]", formatDuration(elapsed)))

	barWidth := 30
	filled := min(int(pct*float64(barWidth)), barWidth)
	filledChar, emptyChar := ProgressChars()

	bar := m.styles.ProgressFilled.Render(strings.Repeat(filledChar, filled)) +
		m.styles.ProgressEmpty.Render(strings.Repeat(emptyChar, barWidth-filled))

	counter := m.styles.Muted.Render(fmt.Sprintf("%d/%d", done, total))

	return fmt.Sprintf("%s %s %s", elapsedStr, bar, counter)
}

func (m *tuiModel) renderList(sl SuiteList) string {
	var b strings.Builder

	b.WriteString(m.styles.Path.Render(sl.path))
	b.WriteString("\n")

	for i, n := range sl.cases {
		m.renderCase(&b, n, i == len(sl.cases)-1)
	}

	b.WriteString("\n")

	return b.String()
}

func (m *tuiModel) renderCase(b *strings.Builder, n *caseNode, isLast bool) {
	branch, prefix := "├─", "│ "
	if isLast {
		branch, prefix = "╰─", "  "
	}

	name := m.styles.Bold.Render(n.id)
	if n.description != "" {
		name += " " + m.styles.CaseName.Render(n.description)
	}

	suffix := ""

	switch n.status {
	case statusRunning:
		suffix = m.styles.Running.Render("  " + string(n.state))
	case statusPending:
	default:
		suffix = m.styles.Dim.Render(fmt.Sprintf("  [%s]", formatDuration(n.elapsed)))
	}

	b.WriteString(m.styles.Dim.Render(branch + " "))
	b.WriteString(m.renderSymbol(n))
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(suffix)
	b.WriteString("\n")

	detail := func(style func(...string) string, text string) {
		for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
			b.WriteString(m.styles.Dim.Render(prefix + "   "))
			b.WriteString(style(line))
			b.WriteString("\n")
		}
	}

	if n.knownDefect != "" && n.status != statusPending {
		detail(m.styles.Defect.Render, "known defect: "+n.knownDefect)
	}

	for _, o := range n.observations {
		detail(m.styles.Muted.Render, o)
	}

	if n.status == statusFail && n.failure != nil {
		detail(m.styles.Fail.Render, n.failure.Detail())
	}

	if n.status == statusError && n.err != nil {
		detail(m.styles.Error.Render, fmt.Sprintf("%s: %v", n.state, n.err))
	}
}

func (m *tuiModel) renderSymbol(n *caseNode) string {
	switch n.status {
	case statusPending:
		return m.styles.Dim.Render("⋯")
	case statusRunning:
		return m.spinner.View()
	case statusPass:
		return m.styles.Pass.Render(m.styles.SymbolPass)
	case statusFail:
		return m.styles.Fail.Render(m.styles.SymbolFail)
	case statusSkip:
		return m.styles.Skip.Render(m.styles.SymbolSkip)
	case statusError:
		return m.styles.Error.Render(m.styles.SymbolFail)
	default:
		return " "
	}
}

func (m *tuiModel) renderSummary() string {
	var parts []string

	if m.counters.passed > 0 {
		parts = append(parts, m.styles.Pass.Render(fmt.Sprintf("%d passed", m.counters.passed)))
	}

	if m.counters.failed > 0 {
		parts = append(parts, m.styles.Fail.Render(fmt.Sprintf("%d failed", m.counters.failed)))
	}

	if m.counters.skipped > 0 {
		parts = append(parts, m.styles.Skip.Render(fmt.Sprintf("%d skipped", m.counters.skipped)))
	}

	if m.counters.errors > 0 {
		parts = append(parts, m.styles.Error.Render(fmt.Sprintf("%d errors", m.counters.errors)))
	}

	if len(parts) == 0 {
		return m.styles.Dim.Render("  No cases run")
	}

	total := m.styles.Muted.Render(fmt.Sprintf("(%d total)", m.counters.total))
	sep := m.styles.Dim.Render(" │ ")

	line := "  " + strings.Join(parts, sep) + " " + total

	if m.finalResult != nil {
		line += m.styles.Dim.Render("  run " + m.finalResult.RunID)
	}

	return line
}

// Helper functions

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return "<1ms"
	}

	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

// -----------------------------------------------------------------------------
// TUIHandler - Bridges TUI to Handler interface
// -----------------------------------------------------------------------------

// TUIHandler wraps TUIFormatter to implement Handler.
type TUIHandler struct {
	formatter *TUIFormatter
	w         io.Writer
	stderr    io.Writer
}

// NewTUIHandler creates a handler that uses the TUI formatter.
// Call SetSuites before Start to initialize the case list.
func NewTUIHandler(w io.Writer, stderr io.Writer) *TUIHandler {
	return &TUIHandler{
		w:      w,
		stderr: stderr,
	}
}

// SetSuites initializes the TUI with the suites about to run.
func (h *TUIHandler) SetSuites(suites []SuiteList) {
	h.formatter = NewTUIFormatter(h.w, suites)
}

// Start initializes the TUI.
func (h *TUIHandler) Start() error {
	if h.formatter == nil {
		h.formatter = NewTUIFormatter(h.w, nil)
	}

	return h.formatter.Start()
}

// Event sends an event to the TUI.
func (h *TUIHandler) Event(_ context.Context, event Event, result *Result) error {
	if h.formatter == nil {
		return nil
	}

	return h.formatter.Format(event, result)
}

// Err writes to stderr.
func (h *TUIHandler) Err(text string) error {
	_, err := h.stderr.Write([]byte(text + "\n"))

	return err
}

// Summary renders the final summary.
func (h *TUIHandler) Summary(result *Result) error {
	if h.formatter == nil {
		return nil
	}

	return h.formatter.Summary(result)
}
