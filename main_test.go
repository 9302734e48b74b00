//go:build !gui

package main

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/metcalfc/pacer/internal/reader"
)

func testModel(t *testing.T, text string) (model, *reader.Engine) {
	t.Helper()
	events := make(chan reader.Event, 64)
	engine := reader.NewEngine(reader.Tokenize(text), reader.Config{WPM: 300, ChunkSize: 1},
		reader.WithClock(clockwork.NewFakeClock()),
		reader.WithObserver(observe(events)),
	)
	t.Cleanup(engine.Stop)
	return newModel(engine, events, reader.ModeRSVP), engine
}

func press(m model, msg tea.KeyMsg) model {
	next, _ := m.Update(msg)
	return next.(model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeysDriveEngine(t *testing.T) {
	m, engine := testModel(t, "one two three four five")

	m = press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if engine.State() != reader.Playing {
		t.Fatalf("space: state = %v, want playing", engine.State())
	}

	m = press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if engine.State() != reader.Paused {
		t.Fatalf("space again: state = %v, want paused", engine.State())
	}

	m = press(m, runes("s"))
	if engine.State() != reader.Idle {
		t.Errorf("s: state = %v, want idle", engine.State())
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if engine.State() != reader.Playing {
		t.Errorf("enter: state = %v, want playing", engine.State())
	}

	press(m, runes("r"))
	if engine.State() != reader.Idle || engine.Cursor() != 0 {
		t.Errorf("r: state = %v cursor %d", engine.State(), engine.Cursor())
	}
}

func TestSpeedAndChunkKeys(t *testing.T) {
	m, engine := testModel(t, "a b c")

	m = press(m, tea.KeyMsg{Type: tea.KeyUp})
	m = press(m, runes("+"))
	if got := engine.Config().WPM; got != 320 {
		t.Errorf("WPM = %d, want 320", got)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if got := engine.Config().WPM; got != 310 {
		t.Errorf("WPM = %d, want 310", got)
	}

	for i := 0; i < 10; i++ {
		m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	}
	if got := engine.Config().ChunkSize; got != reader.MaxChunkSize {
		t.Errorf("chunk = %d, want clamp at %d", got, reader.MaxChunkSize)
	}
	press(m, tea.KeyMsg{Type: tea.KeyLeft})
	if got := engine.Config().ChunkSize; got != reader.MaxChunkSize-1 {
		t.Errorf("chunk = %d", got)
	}
}

func TestSpeedClamped(t *testing.T) {
	m, engine := testModel(t, "a b c")
	for i := 0; i < 200; i++ {
		m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if got := engine.Config().WPM; got != reader.MinWPM {
		t.Errorf("WPM = %d, want %d", got, reader.MinWPM)
	}
}

func TestModeToggle(t *testing.T) {
	m, _ := testModel(t, "alpha beta gamma")
	m = press(m, runes("m"))
	if m.mode != reader.ModeHighlight {
		t.Fatalf("mode = %v", m.mode)
	}
	view := m.View()
	for _, w := range []string{"alpha", "beta", "gamma"} {
		if !strings.Contains(view, w) {
			t.Errorf("highlight view missing %q", w)
		}
	}
	m = press(m, runes("m"))
	if m.mode != reader.ModeRSVP {
		t.Errorf("mode = %v", m.mode)
	}
}

func TestQuit(t *testing.T) {
	m, engine := testModel(t, "a b c")
	engine.Start()

	next, cmd := m.Update(runes("q"))
	if !next.(model).quitting {
		t.Error("expected quitting")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if engine.State() != reader.Paused {
		t.Errorf("engine state = %v, want paused", engine.State())
	}
	if next.View() != "" {
		t.Error("view should be empty after quit")
	}
}

func TestFinishedBanner(t *testing.T) {
	// A full channel drops every event, including Finished; the banner must
	// still follow the engine.
	events := make(chan reader.Event, 1)
	events <- reader.Event{Kind: reader.EventAdvanced}
	clock := clockwork.NewFakeClock()
	engine := reader.NewEngine(reader.Tokenize("a b c"), reader.Config{WPM: 600, ChunkSize: 5},
		reader.WithClock(clock),
		reader.WithObserver(observe(events)),
	)
	t.Cleanup(engine.Stop)
	m := newModel(engine, events, reader.ModeRSVP)

	engine.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("timer never armed: %v", err)
	}
	clock.Advance(engine.Period())

	deadline := time.Now().Add(time.Second)
	for engine.State() != reader.Finished {
		if time.Now().After(deadline) {
			t.Fatalf("state = %v, want finished", engine.State())
		}
		time.Sleep(time.Millisecond)
	}
	if len(events) != 1 {
		t.Fatalf("expected the finished event to be dropped, channel holds %d", len(events))
	}
	if !strings.Contains(m.View(), "Reading complete") {
		t.Errorf("missing completion banner: %q", m.View())
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if strings.Contains(m.View(), "Reading complete") {
		t.Error("banner should clear on restart")
	}
}

func TestReload(t *testing.T) {
	m, engine := testModel(t, "old text")
	engine.Start()

	next, _ := m.Update(reloadMsg{seq: reader.Tokenize("brand new words here"), hash: "abc"})
	m = next.(model)
	if m.hash != "abc" {
		t.Errorf("hash = %q", m.hash)
	}
	if engine.Sequence().Len() != 4 {
		t.Errorf("sequence len = %d", engine.Sequence().Len())
	}
	if engine.State() != reader.Playing {
		t.Errorf("reload should keep playing, state = %v", engine.State())
	}
}

func TestRSVPView(t *testing.T) {
	m, _ := testModel(t, "reading is fun")
	if !strings.Contains(m.View(), "reading") {
		t.Errorf("view missing current word: %q", m.View())
	}
}

func TestEmptyView(t *testing.T) {
	m, _ := testModel(t, "")
	if m.View() != "No text to read." {
		t.Errorf("View() = %q", m.View())
	}
}

func TestFormatWord(t *testing.T) {
	for _, w := range []string{"a", "hello", "naïveté", "日本語テキスト"} {
		got := formatWord(w)
		if !strings.Contains(got, string([]rune(w)[reader.GetORPPosition(w)])) {
			t.Errorf("formatWord(%q) = %q lost its focus rune", w, got)
		}
	}
}

func TestHighlightViewWraps(t *testing.T) {
	seq := reader.Tokenize("one two three four five six seven eight nine ten")
	view := highlightView(seq, 8, 9, 14, 2)
	lines := strings.Split(view, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), view)
	}
	if !strings.Contains(view, "nine") {
		t.Errorf("view does not include the highlighted word: %q", view)
	}
	if strings.Contains(view, "one") {
		t.Errorf("view should scroll past the first line: %q", view)
	}
}

func TestObserveDoesNotBlock(t *testing.T) {
	ch := make(chan reader.Event, 1)
	fn := observe(ch)
	fn(reader.Event{Kind: reader.EventStarted})
	fn(reader.Event{Kind: reader.EventAdvanced})
	if ev := <-ch; ev.Kind != reader.EventStarted {
		t.Errorf("got %v", ev.Kind)
	}
}
