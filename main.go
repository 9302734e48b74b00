//go:build !gui

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/metcalfc/pacer/internal/extract"
	"github.com/metcalfc/pacer/internal/reader"
	"github.com/metcalfc/pacer/internal/source"
	"github.com/metcalfc/pacer/internal/state"
	"go.uber.org/zap"
)

var (
	erpStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF0000"))

	wordBeforeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	wordAfterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	dimWordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777"))

	highlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#FFAA00"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	completeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)
)

const wpmStep = 10

type keyMap struct {
	Toggle   key.Binding
	Stop     key.Binding
	Reset    key.Binding
	Restart  key.Binding
	Faster   key.Binding
	Slower   key.Binding
	Wider    key.Binding
	Narrower key.Binding
	Mode     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Faster, k.Slower, k.Mode, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Stop, k.Reset, k.Restart},
		{k.Faster, k.Slower, k.Wider, k.Narrower},
		{k.Mode, k.Help, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle:   key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		Stop:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Restart:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "restart clock")),
		Faster:   key.NewBinding(key.WithKeys("up", "+", "="), key.WithHelp("↑/+", "faster")),
		Slower:   key.NewBinding(key.WithKeys("down", "-"), key.WithHelp("↓/-", "slower")),
		Wider:    key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "more words")),
		Narrower: key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "fewer words")),
		Mode:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mode")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type eventMsg reader.Event

type reloadMsg struct {
	seq  reader.Sequence
	hash string
}

type reloadErrMsg struct{ err error }

type model struct {
	engine   *reader.Engine
	events   <-chan reader.Event
	session  *session
	hash     string
	mode     reader.Mode
	keys     keyMap
	help     help.Model
	progress progress.Model
	err      error
	quitting bool
	width    int
	height   int
}

func newModel(engine *reader.Engine, events <-chan reader.Event, mode reader.Mode) model {
	return model{
		engine:   engine,
		events:   events,
		mode:     mode,
		keys:     defaultKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		width:    80,
		height:   24,
	}
}

// observe returns an engine observer that forwards events to ch without
// blocking the engine. Events only wake the view, which reads everything it
// shows from the engine, so a dropped event only delays a redraw.
func observe(ch chan<- reader.Event) func(reader.Event) {
	return func(ev reader.Event) {
		select {
		case ch <- ev:
		default:
		}
	}
}

func waitForEvent(ch <-chan reader.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func (m model) Init() tea.Cmd {
	engine := m.engine
	return tea.Batch(waitForEvent(m.events), func() tea.Msg {
		engine.Start()
		return nil
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = max(min(msg.Width-4, 60), 10)
		return m, nil

	case eventMsg:
		return m, waitForEvent(m.events)

	case reloadMsg:
		m.hash = msg.hash
		m.err = nil
		playing := m.engine.State() == reader.Playing
		m.engine.Load(msg.seq)
		if playing {
			m.engine.Start()
		}
		return m, nil

	case reloadErrMsg:
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cfg := m.engine.Config()
	switch {
	case key.Matches(msg, m.keys.Toggle):
		m.engine.Toggle()
	case key.Matches(msg, m.keys.Stop):
		m.engine.Stop()
	case key.Matches(msg, m.keys.Reset):
		m.engine.Reset()
	case key.Matches(msg, m.keys.Restart):
		m.engine.Start()
	case key.Matches(msg, m.keys.Faster):
		m.engine.SetWPM(cfg.WPM + wpmStep)
	case key.Matches(msg, m.keys.Slower):
		m.engine.SetWPM(cfg.WPM - wpmStep)
	case key.Matches(msg, m.keys.Wider):
		m.engine.SetChunkSize(cfg.ChunkSize + 1)
	case key.Matches(msg, m.keys.Narrower):
		m.engine.SetChunkSize(cfg.ChunkSize - 1)
	case key.Matches(msg, m.keys.Mode):
		m.mode = m.mode.Toggle()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Quit):
		m.engine.Pause()
		if m.session != nil {
			m.session.save(m.hash, m.engine.Snapshot(), m.mode)
		}
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.engine.Snapshot()
	if snap.Len == 0 {
		return "No text to read."
	}

	pause := ""
	switch snap.State {
	case reader.Paused:
		pause = pausedStyle.Render(" [PAUSED]")
	case reader.Idle:
		pause = pausedStyle.Render(" [STOPPED]")
	}
	status := statusStyle.Render(
		fmt.Sprintf("Word %d/%d | %d WPM | %d/chunk | %s%s",
			snap.Start+1,
			snap.Len,
			snap.Config.WPM,
			snap.Config.ChunkSize,
			m.mode,
			pause,
		),
	)

	var body string
	if snap.State == reader.Finished {
		body = completeStyle.Render("Reading complete! enter: read again  q: quit")
		body = strings.Repeat(" ", max((m.width-lipgloss.Width(body))/2, 0)) + body
	} else if m.mode == reader.ModeHighlight {
		body = highlightView(m.engine.Sequence(), snap.Start, snap.End, m.width-2, max(m.height-6, 1))
	} else {
		body = rsvpView(m.engine.Chunk(), m.width)
	}

	footer := m.progress.ViewAs(snap.Progress) + "\n" + m.help.View(m.keys)
	if m.err != nil {
		footer = errorStyle.Render("reload failed: "+m.err.Error()) + "\n" + footer
	}

	// Reserve lines for status at top and footer at bottom
	avail := max(m.height-1-lipgloss.Height(footer)-lipgloss.Height(body), 0)
	vPad := avail / 2

	var sb strings.Builder
	sb.WriteString(status)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("\n", vPad))
	sb.WriteString(body)
	sb.WriteString(strings.Repeat("\n", avail-vPad))
	sb.WriteString("\n")
	sb.WriteString(footer)
	return sb.String()
}

// rsvpView anchors the focus letter of the chunk's first word at the screen
// center.
func rsvpView(chunk []string, width int) string {
	if len(chunk) == 0 {
		return ""
	}
	first := chunk[0]
	line := formatWord(first)
	if len(chunk) > 1 {
		line += " " + wordAfterStyle.Render(strings.Join(chunk[1:], " "))
	}
	return anchorORPText(line, first, width)
}

func formatWord(word string) string {
	before, focus, after := reader.SplitORP(word)
	return wordBeforeStyle.Render(before) +
		erpStyle.Render(focus) +
		wordAfterStyle.Render(after)
}

func anchorORPText(text string, word string, width int) string {
	anchor := width / 2
	orp := reader.GetORPPosition(word)
	pad := anchor - orp
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + text
}

// highlightView word-wraps seq to width and shows at most maxLines lines
// around the emphasized window [start, end).
func highlightView(seq reader.Sequence, start, end, width, maxLines int) string {
	width = max(width, 10)
	var lines [][]int
	var line []int
	lineLen := 0
	focusLine := 0
	for i := 0; i < seq.Len(); i++ {
		n := len([]rune(seq.Word(i)))
		if len(line) > 0 && lineLen+1+n > width {
			lines = append(lines, line)
			line, lineLen = nil, 0
		}
		if i == start {
			focusLine = len(lines)
		}
		if len(line) > 0 {
			lineLen++
		}
		line = append(line, i)
		lineLen += n
	}
	if len(line) > 0 {
		lines = append(lines, line)
	}

	first := max(min(focusLine-maxLines/2, len(lines)-maxLines), 0)
	last := min(first+maxLines, len(lines))

	var sb strings.Builder
	for li := first; li < last; li++ {
		if li > first {
			sb.WriteString("\n")
		}
		sb.WriteString(" ")
		for j, idx := range lines[li] {
			if j > 0 {
				sb.WriteString(" ")
			}
			if idx >= start && idx < end {
				sb.WriteString(highlightStyle.Render(seq.Word(idx)))
			} else {
				sb.WriteString(dimWordStyle.Render(seq.Word(idx)))
			}
		}
	}
	return sb.String()
}

func main() {
	opts := registerFlags(flag.CommandLine)
	watch := flag.Bool("watch", false, "Reload the file when it changes")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Pacer - Terminal Speed Reading Tool\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  pacer [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  pacer file.txt                Read from file at 300 WPM\n")
		fmt.Fprintf(os.Stderr, "  pacer -w 500 -c 2 book.epub   Two words at a time at 500 WPM\n")
		fmt.Fprintf(os.Stderr, "  pacer -mode highlight doc.pdf Highlight words in place\n")
		fmt.Fprintf(os.Stderr, "  cat file.txt | pacer          Read from stdin\n")
		fmt.Fprintf(os.Stderr, "\nSupported formats:\n")
		for _, f := range extract.SupportedFormats() {
			fmt.Fprintf(os.Stderr, "  %s\n", f)
		}
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  SPACE    Pause/play\n")
		fmt.Fprintf(os.Stderr, "  S / R    Stop / reset to the beginning\n")
		fmt.Fprintf(os.Stderr, "  ENTER    Restart the clock (applies a new speed now)\n")
		fmt.Fprintf(os.Stderr, "  ↑/↓ +/-  Increase/decrease speed by %d WPM\n", wpmStep)
		fmt.Fprintf(os.Stderr, "  ←/→      Fewer/more words per chunk\n")
		fmt.Fprintf(os.Stderr, "  M        Toggle RSVP / highlight mode\n")
		fmt.Fprintf(os.Stderr, "  Q        Quit\n")
	}
	flag.Parse()
	opts.markSet(flag.CommandLine)

	if opts.version {
		fmt.Printf("pacer %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	sess, err := newSession(opts, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer sess.close()

	var src source.ByteSource
	path := ""
	if flag.NArg() > 0 {
		path = flag.Arg(0)
		src = source.FileSource{Path: path}
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			fmt.Fprintln(os.Stderr, "Error: No input provided. Provide a file or pipe text to stdin.")
			fmt.Fprintln(os.Stderr, "Try: pacer -h")
			os.Exit(1)
		}
		src = source.Stdin()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doc, text, err := sess.extractor.Load(ctx, src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	seq := reader.Tokenize(text)
	if seq.Len() == 0 {
		fmt.Fprintln(os.Stderr, "Error: No text to read.")
		os.Exit(1)
	}

	hash := ""
	if path != "" {
		hash = state.ComputeHash(doc.Bytes)
	}

	events := make(chan reader.Event, 64)
	engine := reader.NewEngine(seq, sess.reveal,
		reader.WithObserver(observe(events)),
		reader.WithLoop(sess.loop),
		reader.WithLogger(sess.logger),
		reader.WithStartAt(sess.startAt(hash)),
	)

	m := newModel(engine, events, sess.mode)
	m.session = sess
	m.hash = hash
	p := tea.NewProgram(m, tea.WithAltScreen())

	if *watch && path != "" {
		go func() {
			err := source.Watch(ctx, path, func() {
				doc, text, err := sess.extractor.Load(ctx, source.FileSource{Path: path})
				if err != nil {
					p.Send(reloadErrMsg{err: err})
					return
				}
				p.Send(reloadMsg{seq: reader.Tokenize(text), hash: state.ComputeHash(doc.Bytes)})
			}, source.WithWatchLogger(sess.logger))
			if err != nil {
				sess.logger.Warn("watch failed", zap.String("path", path), zap.Error(err))
			}
		}()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	engine.Stop()
}
