package reader

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func words(n int) Sequence {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("w%d", i)
	}
	return Tokenize(strings.Join(w, " "))
}

type harness struct {
	t      *testing.T
	clock  *clockwork.FakeClock
	events chan Event
	engine *Engine
}

func newHarness(t *testing.T, seq Sequence, cfg Config, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		clock:  clockwork.NewFakeClock(),
		events: make(chan Event, 256),
	}
	opts = append([]Option{
		WithClock(h.clock),
		WithObserver(func(ev Event) { h.events <- ev }),
	}, opts...)
	h.engine = NewEngine(seq, cfg, opts...)
	t.Cleanup(h.engine.Stop)
	return h
}

// waitTimers blocks until exactly n timers are pending on the fake clock.
func (h *harness) waitTimers(n int) {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.clock.BlockUntilContext(ctx, n); err != nil {
		h.t.Fatalf("waiting for %d pending timers: %v", n, err)
	}
}

func (h *harness) next() Event {
	h.t.Helper()
	select {
	case ev := <-h.events:
		return ev
	case <-time.After(time.Second):
		h.t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func (h *harness) expect(kind EventKind) Event {
	h.t.Helper()
	ev := h.next()
	if ev.Kind != kind {
		h.t.Fatalf("got event %v, want %v", ev.Kind, kind)
	}
	return ev
}

// quiet fails if any event arrives within a short window.
func (h *harness) quiet() {
	h.t.Helper()
	select {
	case ev := <-h.events:
		h.t.Fatalf("unexpected event %v at cursor %d", ev.Kind, ev.Cursor)
	case <-time.After(20 * time.Millisecond):
	}
}

// step lets the single pending timer fire and returns the resulting event.
func (h *harness) step(d time.Duration) Event {
	h.t.Helper()
	h.waitTimers(1)
	h.clock.Advance(d)
	return h.next()
}

func TestEngineAdvancesAtConfiguredRate(t *testing.T) {
	h := newHarness(t, words(10), Config{WPM: 600, ChunkSize: 1})
	e := h.engine

	e.Start()
	h.expect(EventStarted)
	begin := h.clock.Now()

	for want := 1; want < 10; want++ {
		ev := h.step(100 * time.Millisecond)
		if ev.Kind != EventAdvanced || ev.Cursor != want {
			t.Fatalf("tick %d: got %v cursor %d, want advanced to %d", want, ev.Kind, ev.Cursor, want)
		}
		if ev.Progress != float64(want)/10 {
			t.Errorf("tick %d: progress %v", want, ev.Progress)
		}
	}

	ev := h.step(100 * time.Millisecond)
	if ev.Kind != EventFinished {
		t.Fatalf("tenth tick: got %v, want finished", ev.Kind)
	}
	if ev.Cursor != 0 || ev.Progress != 0 || ev.State != Finished {
		t.Errorf("finished event = %+v", ev)
	}
	if elapsed := h.clock.Since(begin); elapsed != time.Second {
		t.Errorf("elapsed = %v, want 1s", elapsed)
	}

	h.waitTimers(0)
	if e.State() != Finished {
		t.Errorf("state = %v, want finished", e.State())
	}
}

func TestEngineNoTickBeforePeriod(t *testing.T) {
	h := newHarness(t, words(5), Config{WPM: 600, ChunkSize: 1})
	h.engine.Start()
	h.expect(EventStarted)

	h.waitTimers(1)
	h.clock.Advance(99 * time.Millisecond)
	h.quiet()
	h.clock.Advance(time.Millisecond)
	if ev := h.expect(EventAdvanced); ev.Cursor != 1 {
		t.Errorf("cursor = %d, want 1", ev.Cursor)
	}
}

func TestEnginePauseResume(t *testing.T) {
	h := newHarness(t, words(10), Config{WPM: 600, ChunkSize: 1})
	e := h.engine

	e.Start()
	h.expect(EventStarted)
	for i := 0; i < 4; i++ {
		h.step(100 * time.Millisecond)
	}

	e.Pause()
	if ev := h.expect(EventPaused); ev.Cursor != 4 {
		t.Fatalf("paused at %d, want 4", ev.Cursor)
	}
	h.waitTimers(0)

	h.clock.Advance(10 * time.Second)
	h.quiet()
	if e.Cursor() != 4 || e.State() != Paused {
		t.Fatalf("after idle time: cursor %d state %v", e.Cursor(), e.State())
	}

	e.Resume()
	if ev := h.expect(EventResumed); ev.Cursor != 4 {
		t.Fatalf("resumed at %d, want 4", ev.Cursor)
	}
	if ev := h.step(100 * time.Millisecond); ev.Cursor != 5 {
		t.Errorf("first tick after resume: cursor %d, want 5", ev.Cursor)
	}
}

func TestEngineStartWhilePausedResumes(t *testing.T) {
	h := newHarness(t, words(10), Config{WPM: 600, ChunkSize: 1})
	e := h.engine
	e.Start()
	h.expect(EventStarted)
	h.step(100 * time.Millisecond)
	e.Pause()
	h.expect(EventPaused)

	e.Start()
	if ev := h.expect(EventResumed); ev.Cursor != 1 {
		t.Errorf("cursor = %d, want 1", ev.Cursor)
	}
}

func TestEngineIgnoresInvalidTransitions(t *testing.T) {
	h := newHarness(t, words(3), DefaultConfig())
	e := h.engine

	e.Pause()
	e.Resume()
	h.quiet()
	if e.State() != Idle {
		t.Errorf("state = %v, want idle", e.State())
	}

	e.Start()
	h.expect(EventStarted)
	e.Resume()
	h.quiet()
}

func TestEngineStopFromAnyState(t *testing.T) {
	setups := map[string]func(h *harness){
		"idle": func(h *harness) {},
		"playing": func(h *harness) {
			h.engine.Start()
			h.expect(EventStarted)
			h.step(100 * time.Millisecond)
		},
		"paused": func(h *harness) {
			h.engine.Start()
			h.expect(EventStarted)
			h.step(100 * time.Millisecond)
			h.engine.Pause()
			h.expect(EventPaused)
		},
		"finished": func(h *harness) {
			h.engine.Start()
			h.expect(EventStarted)
			h.step(100 * time.Millisecond)
			h.step(100 * time.Millisecond)
			h.step(100 * time.Millisecond)
		},
	}

	for name, setup := range setups {
		for _, action := range []string{"stop", "reset"} {
			t.Run(name+"/"+action, func(t *testing.T) {
				h := newHarness(t, words(3), Config{WPM: 600, ChunkSize: 1})
				setup(h)

				want := EventStopped
				if action == "stop" {
					h.engine.Stop()
				} else {
					h.engine.Reset()
					want = EventReset
				}
				ev := h.expect(want)
				if ev.State != Idle || ev.Cursor != 0 || ev.Progress != 0 {
					t.Errorf("event = %+v", ev)
				}
				s := h.engine.Snapshot()
				if s.State != Idle || s.Cursor != 0 || s.Progress != 0 {
					t.Errorf("snapshot = %+v", s)
				}
				h.waitTimers(0)
				h.clock.Advance(time.Second)
				h.quiet()
			})
		}
	}
}

func TestEngineDoubleStartKeepsOneTimer(t *testing.T) {
	h := newHarness(t, words(20), Config{WPM: 600, ChunkSize: 1})
	e := h.engine

	e.Start()
	e.Start()
	h.expect(EventStarted)
	h.expect(EventStarted)
	h.waitTimers(1)

	for i := 1; i <= 5; i++ {
		if ev := h.step(100 * time.Millisecond); ev.Cursor != i {
			t.Fatalf("tick %d: cursor %d", i, ev.Cursor)
		}
		h.quiet()
	}
	if e.Cursor() != 5 {
		t.Errorf("cursor = %d, want 5", e.Cursor())
	}
}

func TestEngineRateChangeAppliesAtNextTick(t *testing.T) {
	h := newHarness(t, words(10), Config{WPM: 600, ChunkSize: 1})
	e := h.engine
	e.Start()
	h.expect(EventStarted)

	h.waitTimers(1)
	h.clock.Advance(50 * time.Millisecond)
	e.SetWPM(300)

	// The interval in flight keeps its 100ms period.
	h.clock.Advance(50 * time.Millisecond)
	h.expect(EventAdvanced)

	// The next one uses 200ms.
	h.waitTimers(1)
	h.clock.Advance(100 * time.Millisecond)
	h.quiet()
	h.clock.Advance(100 * time.Millisecond)
	if ev := h.expect(EventAdvanced); ev.Cursor != 2 {
		t.Errorf("cursor = %d, want 2", ev.Cursor)
	}
}

func TestEngineRestartAppliesRateImmediately(t *testing.T) {
	h := newHarness(t, words(10), Config{WPM: 600, ChunkSize: 1})
	e := h.engine
	e.Start()
	h.expect(EventStarted)
	h.step(100 * time.Millisecond)

	e.SetWPM(1000)
	e.Start()
	if ev := h.expect(EventStarted); ev.Cursor != 1 {
		t.Fatalf("restart moved cursor to %d", ev.Cursor)
	}
	if ev := h.step(60 * time.Millisecond); ev.Cursor != 2 {
		t.Errorf("cursor = %d, want 2", ev.Cursor)
	}
}

func TestEngineChunkChangeAppliesToLaterAdvances(t *testing.T) {
	h := newHarness(t, words(10), Config{WPM: 600, ChunkSize: 1})
	e := h.engine
	e.Start()
	h.expect(EventStarted)

	e.SetChunkSize(3)
	if start, end := e.Window(); start != 0 || end != 1 {
		t.Fatalf("window changed mid-interval: [%d,%d)", start, end)
	}

	ev := h.step(100 * time.Millisecond)
	if ev.Cursor != 1 || ev.Start != 1 || ev.End != 4 {
		t.Fatalf("after tick: %+v, want cursor 1 window [1,4)", ev)
	}
	ev = h.step(100 * time.Millisecond)
	if ev.Cursor != 4 || ev.End != 7 {
		t.Fatalf("after second tick: %+v, want cursor 4 window [4,7)", ev)
	}
	if got := e.Chunk(); strings.Join(got, " ") != "w4 w5 w6" {
		t.Errorf("Chunk() = %v", got)
	}
}

func TestEngineFinalPartialChunk(t *testing.T) {
	h := newHarness(t, words(5), Config{WPM: 600, ChunkSize: 2})
	e := h.engine
	e.Start()
	h.expect(EventStarted)

	h.step(100 * time.Millisecond)
	ev := h.step(100 * time.Millisecond)
	if ev.Cursor != 4 || ev.Start != 4 || ev.End != 5 {
		t.Fatalf("last chunk = %+v, want [4,5)", ev)
	}
	if got := e.Chunk(); len(got) != 1 || got[0] != "w4" {
		t.Errorf("Chunk() = %v", got)
	}
	if ev := h.step(100 * time.Millisecond); ev.Kind != EventFinished {
		t.Errorf("got %v, want finished", ev.Kind)
	}
}

func TestEngineChunkCoversSequence(t *testing.T) {
	for _, n := range []int{3, 5} {
		t.Run(fmt.Sprintf("chunk %d over 3 words", n), func(t *testing.T) {
			h := newHarness(t, words(3), Config{WPM: 600, ChunkSize: n})
			h.engine.Start()
			h.expect(EventStarted)
			if ev := h.step(100 * time.Millisecond); ev.Kind != EventFinished {
				t.Errorf("first tick = %v, want finished", ev.Kind)
			}
		})
	}
}

func TestEngineLoop(t *testing.T) {
	h := newHarness(t, words(2), Config{WPM: 600, ChunkSize: 1}, WithLoop(true))
	e := h.engine
	e.Start()
	h.expect(EventStarted)

	h.step(100 * time.Millisecond)
	h.step(100 * time.Millisecond)
	// step consumed Finished; the restart follows it.
	if ev := h.expect(EventStarted); ev.Cursor != 0 || ev.State != Playing {
		t.Fatalf("loop restart = %+v", ev)
	}
	if ev := h.step(100 * time.Millisecond); ev.Cursor != 1 {
		t.Errorf("cursor after loop = %d, want 1", ev.Cursor)
	}
}

func TestEngineEmptySequence(t *testing.T) {
	h := newHarness(t, Tokenize("   \n "), DefaultConfig())
	e := h.engine
	if e.Progress() != 0 {
		t.Errorf("idle progress = %v, want 0", e.Progress())
	}
	e.Start()
	h.expect(EventFinished)
	if e.State() != Finished || e.Progress() != 1 {
		t.Errorf("state %v progress %v, want finished 1", e.State(), e.Progress())
	}
	h.waitTimers(0)
}

func TestEngineLoad(t *testing.T) {
	h := newHarness(t, words(10), Config{WPM: 600, ChunkSize: 1})
	e := h.engine
	first := e.Snapshot().Session

	e.Start()
	h.expect(EventStarted)
	h.step(100 * time.Millisecond)

	e.Load(Tokenize("fresh text here"))
	ev := h.expect(EventLoaded)
	if ev.Session == first || ev.Session == "" {
		t.Errorf("session not renewed: %q", ev.Session)
	}
	s := e.Snapshot()
	if s.State != Idle || s.Cursor != 0 || s.Len != 3 {
		t.Errorf("snapshot = %+v", s)
	}
	h.waitTimers(0)
}

func TestEngineSetConfigClamps(t *testing.T) {
	e := NewEngine(words(3), Config{WPM: 10, ChunkSize: 0}, WithClock(clockwork.NewFakeClock()))
	if got := e.Config(); got != (Config{WPM: MinWPM, ChunkSize: MinChunkSize}) {
		t.Errorf("Config() = %+v", got)
	}
	e.SetConfig(Config{WPM: 5000, ChunkSize: 9})
	if got := e.Config(); got != (Config{WPM: MaxWPM, ChunkSize: MaxChunkSize}) {
		t.Errorf("Config() = %+v", got)
	}
	if s := e.Snapshot(); s.Chunk != MaxChunkSize {
		t.Errorf("idle chunk = %d, want immediate change", s.Chunk)
	}
}

func TestEngineStartAt(t *testing.T) {
	tests := []struct {
		at, chunk, want int
	}{
		{0, 1, 0},
		{7, 1, 7},
		{7, 3, 6},
		{9, 5, 5},
		{10, 1, 0},
		{-3, 1, 0},
	}
	for _, tt := range tests {
		e := NewEngine(words(10), Config{WPM: 300, ChunkSize: tt.chunk}, WithStartAt(tt.at), WithClock(clockwork.NewFakeClock()))
		if got := e.Cursor(); got != tt.want {
			t.Errorf("WithStartAt(%d) chunk %d: cursor %d, want %d", tt.at, tt.chunk, got, tt.want)
		}
	}
}

func TestEngineObserverMayCallBack(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var e *Engine
	var kinds []EventKind
	done := make(chan struct{})
	e = NewEngine(words(10), Config{WPM: 600, ChunkSize: 1},
		WithClock(clock),
		WithObserver(func(ev Event) {
			kinds = append(kinds, ev.Kind)
			switch ev.Kind {
			case EventAdvanced:
				e.Pause()
			case EventPaused:
				close(done)
			}
		}),
	)
	defer e.Stop()

	e.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatal(err)
	}
	clock.Advance(100 * time.Millisecond)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("observer deadlocked")
	}
	want := []EventKind{EventStarted, EventAdvanced, EventPaused}
	if fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", kinds, want)
	}
	if e.State() != Paused || e.Cursor() != 1 {
		t.Errorf("state %v cursor %d", e.State(), e.Cursor())
	}
}

func TestConfigInterval(t *testing.T) {
	tests := []struct {
		wpm  int
		want time.Duration
	}{
		{600, 100 * time.Millisecond},
		{300, 200 * time.Millisecond},
		{60, time.Second},
		{1000, 60 * time.Millisecond},
		{1, 1200 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := (Config{WPM: tt.wpm, ChunkSize: 1}).Interval(); got != tt.want {
			t.Errorf("Interval(%d wpm) = %v, want %v", tt.wpm, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{"": ModeRSVP, "rsvp": ModeRSVP, "Highlight": ModeHighlight}
	for in, want := range tests {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("karaoke"); err == nil {
		t.Error("expected error for unknown mode")
	}
	if ModeRSVP.Toggle() != ModeHighlight || ModeHighlight.Toggle() != ModeRSVP {
		t.Error("Toggle does not alternate")
	}
}

func TestEngineLoadAt(t *testing.T) {
	h := newHarness(t, words(3), Config{WPM: 600, ChunkSize: 2})
	e := h.engine

	e.LoadAt(words(10), 7)
	if ev := h.expect(EventLoaded); ev.Cursor != 6 || ev.Start != 6 || ev.End != 8 {
		t.Errorf("loaded event = %+v, want cursor 6 window [6,8)", ev)
	}

	e.LoadAt(words(4), 40)
	if ev := h.expect(EventLoaded); ev.Cursor != 0 {
		t.Errorf("out of range position: cursor %d, want 0", ev.Cursor)
	}
}
