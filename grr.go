//go:build gui

package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"os"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/metcalfc/pacer/internal/reader"
	"github.com/metcalfc/pacer/internal/source"
	"github.com/metcalfc/pacer/internal/state"
	"go.uber.org/zap"
)

// highlightPage is how many words the highlight view renders at once.
const highlightPage = 150

type model struct {
	engine   *reader.Engine
	session  *session
	mode     reader.Mode
	fontSize float32
	hash     string
	name     string

	// loadMu guards cancelLoad; only one extraction runs at a time.
	loadMu     sync.Mutex
	cancelLoad context.CancelFunc
}

func createWordDisplay(chunk []string, fontSize float32, windowWidth float32) *fyne.Container {
	word := ""
	rest := ""
	if len(chunk) > 0 {
		word = chunk[0]
		rest = strings.Join(chunk[1:], " ")
	}
	before, focus, after := reader.SplitORP(word)
	if rest != "" {
		after += " " + rest
	}

	beforeText := canvas.NewText(before, color.White)
	beforeText.TextSize = fontSize
	beforeText.TextStyle.Bold = true

	focusText := canvas.NewText(focus, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	focusText.TextSize = fontSize
	focusText.TextStyle.Bold = true

	afterText := canvas.NewText(after, color.White)
	afterText.TextSize = fontSize
	afterText.TextStyle.Bold = true

	// Horizontal: anchor ORP at center
	centerX := windowWidth / 2
	beforeX := max(centerX-beforeText.MinSize().Width, 0)
	focusX := centerX
	afterX := centerX + focusText.MinSize().Width

	c := &fyne.Container{
		Layout:  &centerVerticalLayout{},
		Objects: []fyne.CanvasObject{beforeText, focusText, afterText},
	}
	beforeText.Move(fyne.NewPos(beforeX, 0))
	focusText.Move(fyne.NewPos(focusX, 0))
	afterText.Move(fyne.NewPos(afterX, 0))
	return c
}

type centerVerticalLayout struct{}

func (l *centerVerticalLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	var maxH float32
	for _, o := range objects {
		maxH = max(maxH, o.MinSize().Height)
	}
	return fyne.NewSize(0, maxH)
}

func (l *centerVerticalLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	var maxH float32
	for _, o := range objects {
		maxH = max(maxH, o.MinSize().Height)
	}

	// Center vertically, X already set
	y := max((size.Height-maxH)/2, 0)
	for _, o := range objects {
		o.Move(fyne.NewPos(o.Position().X, y))
		o.Resize(o.MinSize())
	}
}

// highlightSegments renders the page of words around [start, end) with the
// window emphasized.
func highlightSegments(seq reader.Sequence, start, end int) []widget.RichTextSegment {
	pageStart := start - start%highlightPage
	pageEnd := min(pageStart+highlightPage, seq.Len())
	segs := make([]widget.RichTextSegment, 0, pageEnd-pageStart)
	for i := pageStart; i < pageEnd; i++ {
		style := widget.RichTextStyleInline
		if i >= start && i < end {
			style = widget.RichTextStyle{
				Inline:    true,
				ColorName: theme.ColorNamePrimary,
				TextStyle: fyne.TextStyle{Bold: true},
			}
		}
		text := seq.Word(i)
		if i+1 < pageEnd {
			text += " "
		}
		segs = append(segs, &widget.TextSegment{Text: text, Style: style})
	}
	return segs
}

// load extracts src off the UI goroutine, cancelling any load in flight,
// and hands the result to done on the UI goroutine.
func (m *model) load(src source.ByteSource, done func(doc source.RawDocument, seq reader.Sequence, err error)) {
	m.loadMu.Lock()
	if m.cancelLoad != nil {
		m.cancelLoad()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelLoad = cancel
	m.loadMu.Unlock()

	go func() {
		doc, text, err := m.session.extractor.Load(ctx, src)
		if ctx.Err() != nil {
			return
		}
		seq := reader.Tokenize(text)
		fyne.Do(func() { done(doc, seq, err) })
	}()
}

func (m *model) save() {
	m.engine.Pause()
	m.session.save(m.hash, m.engine.Snapshot(), m.mode)
}

func main() {
	opts := registerFlags(flag.CommandLine)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Grr - GUI Speed Reading Tool\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  grr [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  grr                       Pick a file to read\n")
		fmt.Fprintf(os.Stderr, "  grr -w 500 book.epub      Read from file at 500 WPM\n")
		fmt.Fprintf(os.Stderr, "  grr -mode highlight a.pdf Highlight words in place\n")
	}
	flag.Parse()
	opts.markSet(flag.CommandLine)

	if opts.version {
		fmt.Printf("grr %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	sess, err := newSession(opts, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer sess.close()

	m := &model{session: sess, mode: sess.mode, fontSize: 72}

	a := app.New()
	w := a.NewWindow("grr - Speed Reader")

	statusLabel := widget.NewLabel("Open a document to start")
	statusLabel.Alignment = fyne.TextAlignCenter
	progressBar := widget.NewProgressBar()

	controlsLabel := widget.NewLabel("SPACE: play/pause  S: stop  ENTER: restart  ↑/↓: speed  ←/→: chunk  M: mode  O: open  +/-: font  F: fullscreen  Q: quit")
	controlsLabel.Alignment = fyne.TextAlignCenter

	wordContainer := container.NewStack()
	highlightText := widget.NewRichText()
	highlightText.Wrapping = fyne.TextWrapWord
	highlightScroll := container.NewVScroll(highlightText)
	finishedLabel := widget.NewLabelWithStyle("Reading complete!", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	finished := false

	updateDisplay := func() {
		if m.engine == nil {
			return
		}
		snap := m.engine.Snapshot()

		switch {
		case finished:
			wordContainer.Objects = []fyne.CanvasObject{container.NewCenter(finishedLabel)}
		case m.mode == reader.ModeHighlight:
			highlightText.Segments = highlightSegments(m.engine.Sequence(), snap.Start, snap.End)
			highlightText.Refresh()
			wordContainer.Objects = []fyne.CanvasObject{highlightScroll}
		default:
			canvasWidth := w.Canvas().Size().Width
			if canvasWidth <= 0 {
				canvasWidth = 800
			}
			wordContainer.Objects = []fyne.CanvasObject{createWordDisplay(m.engine.Chunk(), m.fontSize, canvasWidth)}
		}
		wordContainer.Refresh()

		stateText := ""
		switch snap.State {
		case reader.Paused:
			stateText = " [PAUSED]"
		case reader.Idle:
			stateText = " [STOPPED]"
		}
		statusLabel.SetText(fmt.Sprintf("%s | Word %d/%d | %d WPM | %d/chunk | %s%s",
			m.name, snap.Start+1, snap.Len, snap.Config.WPM, snap.Config.ChunkSize, m.mode, stateText))
		progressBar.SetValue(snap.Progress)
	}

	m.engine = reader.NewEngine(reader.Sequence{}, sess.reveal,
		reader.WithLoop(sess.loop),
		reader.WithLogger(sess.logger),
		reader.WithObserver(func(ev reader.Event) {
			fyne.Do(func() {
				switch ev.Kind {
				case reader.EventFinished:
					finished = true
				case reader.EventStarted, reader.EventResumed, reader.EventLoaded, reader.EventStopped, reader.EventReset:
					finished = false
				}
				updateDisplay()
			})
		}),
	)

	openDocument := func(src source.ByteSource) {
		m.load(src, func(doc source.RawDocument, seq reader.Sequence, err error) {
			if err != nil {
				if source.IsCancelled(err) {
					return
				}
				sess.logger.Warn("failed to load document", zap.Error(err))
				dialog.ShowError(err, w)
				return
			}
			if seq.Len() == 0 {
				dialog.ShowInformation("Empty document", "No text to read.", w)
				return
			}
			if m.hash != "" {
				m.save()
			}
			m.name = doc.Name
			m.hash = state.ComputeHash(doc.Bytes)
			m.engine.LoadAt(seq, sess.startAt(m.hash))
			updateDisplay()
		})
	}

	pickFile := func() {
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			openDocument(source.URISource{Reader: rc, Err: err})
		}, w)
		fd.SetFilter(storage.NewExtensionFileFilter(source.AcceptedExtensions))
		fd.Show()
	}

	openButton := widget.NewButtonWithIcon("Open", theme.FolderOpenIcon(), pickFile)
	top := container.NewBorder(nil, progressBar, openButton, nil, statusLabel)

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		cfg := m.engine.Config()
		switch key.Name {
		case fyne.KeySpace:
			m.engine.Toggle()
		case fyne.KeyReturn, fyne.KeyEnter:
			m.engine.Start()
		case fyne.KeyUp:
			m.engine.SetWPM(cfg.WPM + 10)
		case fyne.KeyDown:
			m.engine.SetWPM(cfg.WPM - 10)
		case fyne.KeyRight:
			m.engine.SetChunkSize(cfg.ChunkSize + 1)
		case fyne.KeyLeft:
			m.engine.SetChunkSize(cfg.ChunkSize - 1)
		case fyne.KeyF:
			w.SetFullScreen(!w.FullScreen())
		case fyne.KeyQ:
			m.save()
			a.Quit()
			return
		}
		updateDisplay()
	})

	w.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case 's', 'S':
			m.engine.Stop()
		case 'r', 'R':
			m.engine.Reset()
		case 'm', 'M':
			m.mode = m.mode.Toggle()
		case 'o', 'O':
			pickFile()
		case '+', '=':
			m.fontSize = min(m.fontSize+5, 200)
		case '-':
			m.fontSize = max(m.fontSize-5, 20)
		}
		updateDisplay()
	})

	w.SetContent(container.NewBorder(top, controlsLabel, nil, nil, wordContainer))
	w.Resize(fyne.NewSize(800, 600))
	w.SetOnClosed(m.save)

	if flag.NArg() > 0 {
		openDocument(source.FileSource{Path: flag.Arg(0)})
	}

	w.ShowAndRun()
}
