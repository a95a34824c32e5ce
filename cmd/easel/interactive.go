package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/easelhq/easel/canvas"
	"github.com/easelhq/easel/catalog"
	"github.com/easelhq/easel/event"
	"github.com/easelhq/easel/session"
)

var (
	appTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444"))

	focusedPaneStyle = paneStyle.BorderForeground(lipgloss.Color("#7D56F4"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1A1A1A")).
			Background(lipgloss.Color("#FFD700")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// outputRows is the transcript pane height. The layout reserves it so
// the canvas rectangle stays put when the widget line appears.
const outputRows = 5

// widgetPanel tracks whether the sketch asked for its input widget.
type widgetPanel struct {
	visible bool
}

var _ event.Controls = (*widgetPanel)(nil)

func (p *widgetPanel) ShowInputControls() { p.visible = true }
func (p *widgetPanel) HideInputControls() { p.visible = false }

// uiOptions wires the shared session world into the terminal UI.
type uiOptions struct {
	Session  *session.Session
	Catalog  *catalog.Catalog
	Frame    *canvas.Framebuffer
	Clock    *event.HeldClock
	Panel    *widgetPanel
	Programs *programLoader
	Interval time.Duration
	Program  string
	Sample   *catalog.Sample
}

type paneFocus int

const (
	focusCanvas paneFocus = iota
	focusEditor
	focusStdin
	focusWidget
)

// uiModel drives the session from the bubbletea update loop; every
// session call happens there, never inside a command goroutine.
type uiModel struct {
	ctx      context.Context
	sess     *session.Session
	catalog  *catalog.Catalog
	frame    *canvas.Framebuffer
	clock    *event.HeldClock
	panel    *widgetPanel
	programs *programLoader
	interval time.Duration

	editor textarea.Model
	stdin  textinput.Model
	widget textinput.Model

	focus     paneFocus
	program   string
	status    string
	statusErr bool
	goal      string
	solved    bool

	pickerOn  bool
	pickerSel int
	filter    string
	matches   []catalog.Sample

	width  int
	height int
	epoch  time.Time

	// Canvas pane interior, in cells, for mouse mapping.
	canvasX, canvasY int
	canvasW, canvasH int
}

type frameMsg time.Time

type autorunMsg struct{}

type sampleLoadedMsg struct {
	sample   catalog.Sample
	launcher session.Launcher
	err      error
}

func newUIModel(ctx context.Context, opts uiOptions) *uiModel {
	ed := textarea.New()
	ed.Placeholder = "sketch source"
	ed.CharLimit = 0

	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = "line for the sketch, enter sends"

	wi := textinput.New()
	wi.Prompt = "? "
	wi.Placeholder = "sketch input"

	program := opts.Program
	if opts.Sample != nil {
		program = opts.Sample.Title
	}

	m := &uiModel{
		ctx:      ctx,
		sess:     opts.Session,
		catalog:  opts.Catalog,
		frame:    opts.Frame,
		clock:    opts.Clock,
		panel:    opts.Panel,
		programs: opts.Programs,
		interval: opts.Interval,
		editor:   ed,
		stdin:    in,
		widget:   wi,
		program:  program,
		epoch:    time.Now(),
		canvasW:  20,
		canvasH:  10,
	}
	m.editor.SetValue(opts.Session.Source())
	if opts.Sample != nil {
		m.goal = opts.Sample.Goal
	}

	opts.Session.SetSourceListener(func(text string) {
		if text != m.editor.Value() {
			m.editor.SetValue(text)
		}
	})
	opts.Session.SetOutputListener(func(string) { m.checkGoal() })
	return m
}

func (m *uiModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.tick(), func() tea.Msg { return autorunMsg{} })
}

func (m *uiModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m *uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case frameMsg:
		m.clock.Fire(float64(time.Time(msg).Sub(m.epoch).Milliseconds()))
		return m, m.tick()

	case autorunMsg:
		m.runSketch()
		return m, nil

	case sampleLoadedMsg:
		m.applySample(msg)
		return m, nil

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateInputs(msg)
}

// updateInputs forwards non-key messages (cursor blinks) to the widgets.
func (m *uiModel) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	cmds = append(cmds, cmd)
	m.stdin, cmd = m.stdin.Update(msg)
	cmds = append(cmds, cmd)
	m.widget, cmd = m.widget.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *uiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if m.pickerOn {
		return m.handlePickerKey(msg)
	}

	switch m.focus {
	case focusEditor:
		if msg.String() == "esc" {
			m.focus = focusCanvas
			m.editor.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd

	case focusStdin:
		switch msg.String() {
		case "esc":
			m.focus = focusCanvas
			m.stdin.Blur()
			return m, nil
		case "enter":
			line := m.stdin.Value()
			m.stdin.SetValue("")
			m.sess.SubmitInput(line + "\n")
			m.note(fmt.Sprintf("sent %q", line))
			return m, nil
		}
		var cmd tea.Cmd
		m.stdin, cmd = m.stdin.Update(msg)
		return m, cmd

	case focusWidget:
		switch msg.String() {
		case "esc":
			m.focus = focusCanvas
			m.widget.Blur()
			return m, nil
		case "enter":
			if err := m.sess.Input(m.ctx, "text", m.widget.Value()); err != nil {
				m.fail(err)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.widget, cmd = m.widget.Update(msg)
		return m, cmd
	}

	return m.handleCanvasKey(msg)
}

func (m *uiModel) handleCanvasKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "r":
		m.runSketch()
		return m, nil
	case "x":
		if err := m.sess.Stop(m.ctx); err != nil {
			m.fail(err)
		} else {
			m.note("stopped")
		}
		return m, nil
	case "c":
		m.sess.ClearOutputAndRender()
		m.solved = false
		return m, nil
	case "e":
		m.focus = focusEditor
		return m, m.editor.Focus()
	case "i":
		m.focus = focusStdin
		return m, m.stdin.Focus()
	case "w":
		if m.panel.visible {
			m.focus = focusWidget
			return m, m.widget.Focus()
		}
		return m, nil
	case "p":
		m.openPicker()
		return m, nil
	}

	// Everything else belongs to the sketch.
	if name, ok := keyName(msg); ok {
		if err := m.sess.Key(m.ctx, event.KeyEvent{Name: name}); err != nil {
			m.fail(err)
		}
	}
	return m, nil
}

// keyName converts terminal keys to the names browser sketches see, so
// the same handlers work under both front ends.
func keyName(msg tea.KeyMsg) (string, bool) {
	switch msg.String() {
	case "up":
		return "ArrowUp", true
	case "down":
		return "ArrowDown", true
	case "left":
		return "ArrowLeft", true
	case "right":
		return "ArrowRight", true
	case "enter":
		return "Enter", true
	case " ", "space":
		return " ", true
	}
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		return string(msg.Runes), true
	}
	return "", false
}

func (m *uiModel) runSketch() {
	m.sess.LoadSource(m.editor.Value())
	m.solved = false
	if err := m.sess.Start(m.ctx); err != nil {
		m.fail(err)
		return
	}
	if m.sess.Running() {
		m.note("running")
	} else {
		m.note("finished")
	}
}

func (m *uiModel) quit() (tea.Model, tea.Cmd) {
	if m.sess.Running() {
		_ = m.sess.Stop(m.ctx)
	}
	return m, tea.Quit
}

func (m *uiModel) openPicker() {
	m.pickerOn = true
	m.filter = ""
	m.pickerSel = 0
	m.matches = m.catalog.List()
}

func (m *uiModel) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.pickerOn = false
	case "up":
		if m.pickerSel > 0 {
			m.pickerSel--
		}
	case "down":
		if m.pickerSel < len(m.matches)-1 {
			m.pickerSel++
		}
	case "enter":
		if len(m.matches) == 0 {
			return m, nil
		}
		s := m.matches[m.pickerSel]
		m.pickerOn = false
		return m, m.loadSample(s)
	case "backspace":
		if m.filter != "" {
			m.filter = m.filter[:len(m.filter)-1]
			m.refilter()
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.filter += string(msg.Runes)
			m.refilter()
		}
	}
	return m, nil
}

func (m *uiModel) refilter() {
	if m.filter == "" {
		m.matches = m.catalog.List()
	} else {
		m.matches = m.catalog.Search(m.filter)
	}
	if m.pickerSel >= len(m.matches) {
		m.pickerSel = 0
	}
}

// loadSample compiles the sample's module off the update loop; the
// session itself is only touched once the result message arrives.
func (m *uiModel) loadSample(s catalog.Sample) tea.Cmd {
	if s.Module == "" {
		// Source-only sample, keeps the current program.
		return func() tea.Msg { return sampleLoadedMsg{sample: s} }
	}
	programs, ctx := m.programs, m.ctx
	return func() tea.Msg {
		launcher, err := programs.Load(ctx, s.Module)
		return sampleLoadedMsg{sample: s, launcher: launcher, err: err}
	}
}

func (m *uiModel) applySample(msg sampleLoadedMsg) {
	if msg.err != nil {
		m.fail(msg.err)
		return
	}
	if msg.launcher != nil {
		if err := m.sess.SetLauncher(msg.launcher); err != nil {
			m.fail(err)
			return
		}
		m.program = msg.sample.Title
	}
	m.sess.LoadSource(msg.sample.Source)
	m.goal = msg.sample.Goal
	m.solved = false
	m.note("loaded " + msg.sample.Title)
}

func (m *uiModel) handleMouse(msg tea.MouseMsg) {
	var kind event.Kind
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		kind = event.KindPointerDown
	case tea.MouseActionRelease:
		kind = event.KindPointerUp
	case tea.MouseActionMotion:
		kind = event.KindPointerMove
	default:
		return
	}
	cx, cy := msg.X-m.canvasX, msg.Y-m.canvasY
	if cx < 0 || cy < 0 || cx >= m.canvasW || cy >= m.canvasH {
		return
	}
	// Cell centers; rows count double because cells hold two samples.
	ev := event.PointerEvent{
		X:       float64(cx) + 0.5,
		Y:       (float64(cy) + 0.5) * 2,
		ClientW: float64(m.canvasW),
		ClientH: float64(m.canvasH * 2),
	}
	if err := m.sess.Pointer(m.ctx, kind, ev); err != nil {
		m.fail(err)
	}
}

func (m *uiModel) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	// Bottom chrome: bordered transcript plus widget, stdin, status and
	// help lines. The widget line is reserved even while hidden.
	bottom := outputRows + 2 + 4
	rows := m.height - 1 - bottom - 2
	if rows < 4 {
		rows = 4
	}
	cols := 2 * rows
	if max := m.width - 34; cols > max {
		cols = max
	}
	if cols < 10 {
		cols = 10
	}
	m.canvasW, m.canvasH = cols, rows
	m.canvasX, m.canvasY = 1, 2

	editorW := m.width - cols - 6
	if editorW < 20 {
		editorW = 20
	}
	m.editor.SetWidth(editorW)
	m.editor.SetHeight(rows)
	m.stdin.Width = m.width - 6
	m.widget.Width = m.width - 6
}

func (m *uiModel) checkGoal() {
	if m.solved || m.goal == "" {
		return
	}
	if strings.Contains(m.sess.Output(), m.goal) {
		m.solved = true
	}
}

func (m *uiModel) note(text string) {
	m.status, m.statusErr = text, false
}

func (m *uiModel) fail(err error) {
	m.status, m.statusErr = err.Error(), true
}

func (m *uiModel) View() string {
	if m.width == 0 {
		return "starting..."
	}

	var b strings.Builder
	b.WriteString(appTitleStyle.Render("easel"))
	b.WriteString(" " + m.program)
	if m.sess.Running() {
		b.WriteString(runningStyle.Render("  ● running"))
	}
	if m.solved {
		b.WriteString("  " + bannerStyle.Render("★ goal reached"))
	}
	b.WriteString("\n")

	canvasPane := m.paneFor(focusCanvas).Render(renderFrame(m.frame, m.canvasW, m.canvasH))
	editorPane := m.paneFor(focusEditor).Render(m.editor.View())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, canvasPane, editorPane))
	b.WriteString("\n")

	b.WriteString(paneStyle.Width(m.width - 2).Height(outputRows).Render(m.outputTail(outputRows)))
	b.WriteString("\n")

	if m.panel.visible {
		b.WriteString(m.widget.View())
	}
	b.WriteString("\n")
	b.WriteString(m.stdin.View())
	b.WriteString("\n")

	if m.statusErr {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.helpLine()))

	if m.pickerOn {
		return b.String() + "\n" + m.renderPicker()
	}
	return b.String()
}

func (m *uiModel) paneFor(f paneFocus) lipgloss.Style {
	if m.focus == f && !m.pickerOn {
		return focusedPaneStyle
	}
	return paneStyle
}

func (m *uiModel) outputTail(n int) string {
	lines := strings.Split(strings.TrimRight(m.sess.Output(), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func (m *uiModel) helpLine() string {
	if m.pickerOn {
		return "type to filter • ↑/↓ select • enter load • esc close"
	}
	switch m.focus {
	case focusEditor:
		return "esc done editing"
	case focusStdin:
		return "enter send line • esc back"
	case focusWidget:
		return "enter send • esc back"
	}
	h := "r run • x stop • c clear • e edit • i type input • p samples • q quit"
	if m.panel.visible {
		h = "w widget • " + h
	}
	return h
}

func (m *uiModel) renderPicker() string {
	var b strings.Builder
	b.WriteString(appTitleStyle.Render("Samples"))
	b.WriteString(" filter: " + m.filter + "\n")
	for i, s := range m.matches {
		line := fmt.Sprintf("%-12s %-28s %s", s.ID, s.Title, s.Course)
		if i == m.pickerSel {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	if len(m.matches) == 0 {
		b.WriteString("  no matches\n")
	}
	return b.String()
}

// renderFrame downsamples the framebuffer into cols×rows cells. Each
// cell shows two vertically stacked samples through the upper half
// block, which keeps the aspect square on 1:2 terminal fonts.
func renderFrame(f *canvas.Framebuffer, cols, rows int) string {
	bg := f.Background()
	var b strings.Builder
	for cy := 0; cy < rows; cy++ {
		if cy > 0 {
			b.WriteByte('\n')
		}
		var (
			run      strings.Builder
			top, bot canvas.Color
			open     bool
		)
		flush := func() {
			if run.Len() == 0 {
				return
			}
			cell := lipgloss.NewStyle().
				Foreground(hexColor(top)).
				Background(hexColor(bot))
			b.WriteString(cell.Render(run.String()))
			run.Reset()
		}
		for cx := 0; cx < cols; cx++ {
			t := probe(f, bg, cx, 2*cy, cols, 2*rows)
			bo := probe(f, bg, cx, 2*cy+1, cols, 2*rows)
			if !open || t != top || bo != bot {
				flush()
				top, bot, open = t, bo, true
			}
			run.WriteRune('▀')
		}
		flush()
	}
	return b.String()
}

// probe picks the most prominent color in the pixel box a grid cell
// covers: the sample farthest from the background wins, so thin strokes
// survive the downsampling.
func probe(f *canvas.Framebuffer, bg canvas.Color, gx, gy, gw, gh int) canvas.Color {
	x0, x1 := gx*f.Width()/gw, (gx+1)*f.Width()/gw
	y0, y1 := gy*f.Height()/gh, (gy+1)*f.Height()/gh
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	const grid = 4
	best, bestDist := bg, 0
	for sy := 0; sy < grid; sy++ {
		y := y0 + (y1-y0)*(2*sy+1)/(2*grid)
		for sx := 0; sx < grid; sx++ {
			x := x0 + (x1-x0)*(2*sx+1)/(2*grid)
			c := f.At(x, y)
			if d := colorDist(c, bg); d > bestDist {
				best, bestDist = c, d
			}
		}
	}
	return best
}

func colorDist(a, b canvas.Color) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}

func hexColor(c canvas.Color) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

func runInteractive(ctx context.Context, opts uiOptions) error {
	p := tea.NewProgram(newUIModel(ctx, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
