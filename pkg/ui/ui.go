// Package ui renders the interactive terminal session: a serial monitor
// pane for traffic, a messages pane for status text, and a compose line,
// mirroring the panes of the original GUI tool.
package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"swarm-terminal/pkg/app"
	"swarm-terminal/pkg/modem"
)

const messagePaneRows = 4

// refreshEvent wakes the poll loop when session output arrives from
// another goroutine.
type refreshEvent struct {
	tcell.EventTime
}

// View is the interactive screen for one session.
type View struct {
	screen  tcell.Screen
	session *app.Session
	port    string
	logPath string

	mu       sync.Mutex
	terminal []string
	messages []string
	input    []rune
}

// New creates a view for the given port. logPath, which may be empty, is
// the log file toggled by the logging key binding.
func New(port, logPath string) (*View, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault)

	return &View{
		screen:  screen,
		port:    port,
		logPath: logPath,
	}, nil
}

// Sinks returns the session sinks feeding this view. They are safe to
// call from any goroutine.
func (v *View) Sinks() app.Sinks {
	return app.Sinks{
		Display: func(line string) {
			v.append(&v.terminal, line)
		},
		Status: func(msg string) {
			v.append(&v.messages, msg)
		},
	}
}

func (v *View) append(pane *[]string, line string) {
	v.mu.Lock()
	*pane = append(*pane, line)
	v.mu.Unlock()

	ev := &refreshEvent{}
	ev.SetEventNow()
	v.screen.PostEvent(ev)
}

// Run drives the event loop until the user quits. It opens the port on
// entry; a failed open leaves the view running so the user can retry.
func (v *View) Run(session *app.Session) error {
	defer v.screen.Fini()
	v.session = session

	session.Dispatch(app.ActionOpenPort, v.port)

	for {
		v.draw()

		switch ev := v.screen.PollEvent().(type) {
		case *tcell.EventResize:
			v.screen.Sync()
		case *refreshEvent:
			// Redrawn at the top of the loop.
		case *tcell.EventKey:
			if v.handleKey(ev) {
				return nil
			}
		}
	}
}

// handleKey applies one key event. It returns true when the user quits.
func (v *View) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlQ, tcell.KeyEscape:
		return true
	case tcell.KeyCtrlO:
		v.session.Dispatch(app.ActionOpenPort, v.port)
	case tcell.KeyCtrlX:
		v.session.Dispatch(app.ActionClosePort, "")
	case tcell.KeyCtrlL:
		v.toggleLogging()
	case tcell.KeyCtrlT:
		v.clearPane(&v.terminal)
	case tcell.KeyCtrlE:
		v.clearPane(&v.messages)
	case tcell.KeyEnter:
		v.submit()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		v.mu.Lock()
		if len(v.input) > 0 {
			v.input = v.input[:len(v.input)-1]
		}
		v.mu.Unlock()
	case tcell.KeyRune:
		v.mu.Lock()
		v.input = append(v.input, ev.Rune())
		v.mu.Unlock()
	}
	return false
}

func (v *View) toggleLogging() {
	if v.session.LoggingActive() {
		v.session.Dispatch(app.ActionStopLogging, "")
		return
	}
	if v.logPath == "" {
		v.Sinks().Status("Error: No Log File Configured!")
		return
	}
	v.session.Dispatch(app.ActionStartLogging, v.logPath)
}

func (v *View) clearPane(pane *[]string) {
	v.mu.Lock()
	*pane = nil
	v.mu.Unlock()
}

func (v *View) submit() {
	v.mu.Lock()
	text := string(v.input)
	v.input = nil
	v.mu.Unlock()

	action, arg := ResolveInput(text)
	v.session.Dispatch(action, arg)
}

// ResolveInput maps a compose-line entry to a session action. A leading
// slash selects a predefined command by its identifier ("/cs", "/fv");
// anything else is sent as a raw payload.
func ResolveInput(text string) (app.Action, string) {
	if strings.HasPrefix(text, "/") {
		return app.ActionSendCanned, strings.TrimPrefix(text, "/")
	}
	return app.ActionSend, text
}

func (v *View) draw() {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.screen
	s.Clear()
	width, height := s.Size()
	if height < messagePaneRows+4 || width < 10 {
		drawText(s, 0, 0, tcell.StyleDefault, "window too small")
		s.Show()
		return
	}

	barStyle := tcell.StyleDefault.Reverse(true)
	dimStyle := tcell.StyleDefault.Dim(true)

	// Status bar.
	logState := "off"
	if v.session != nil && v.session.LoggingActive() {
		logState = v.logPath
	}
	state := modem.StateClosed
	if v.session != nil {
		state = v.session.PortState()
	}
	bar := fmt.Sprintf(" %s  %s  log:%s  ^O open ^X close ^L log ^Q quit", v.port, state, logState)
	drawText(s, 0, 0, barStyle, pad(bar, width))

	// Serial monitor pane.
	termTop := 1
	termBottom := height - messagePaneRows - 3
	drawTail(s, v.terminal, termTop, termBottom, width)

	// Messages pane.
	drawText(s, 0, termBottom+1, dimStyle, pad(" Messages", width))
	drawTail(s, v.messages, termBottom+2, height-2, width)

	// Compose line.
	prompt := "> " + string(v.input)
	drawText(s, 0, height-1, tcell.StyleDefault, truncate(prompt, width))
	s.ShowCursor(min(len(prompt), width-1), height-1)

	s.Show()
}

// drawTail renders the last lines of pane that fit between rows top and
// bottom inclusive.
func drawTail(s tcell.Screen, lines []string, top, bottom, width int) {
	rows := bottom - top + 1
	if rows <= 0 {
		return
	}
	visible := tail(lines, rows)
	for i, line := range visible {
		drawText(s, 0, top+i, tcell.StyleDefault, truncate(line, width))
	}
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

// tail returns the last n elements of lines.
func tail(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

// truncate cuts s to at most width runes.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}

// pad extends s with spaces to exactly width runes.
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
