package reader

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock that drives ticks.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithObserver registers fn to receive every Event. Events are delivered in
// order, one at a time, without the engine lock held, so fn may call back
// into the engine.
func WithObserver(fn func(Event)) Option {
	return func(e *Engine) { e.observer = fn }
}

// WithLoop restarts playback from the beginning after each Finished event.
func WithLoop(loop bool) Option {
	return func(e *Engine) { e.loop = loop }
}

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithStartAt places the cursor at word n, rounded down to a multiple of the
// chunk size. Out of range positions start at 0.
func WithStartAt(n int) Option {
	return func(e *Engine) { e.startAt = n }
}

// Engine advances a cursor through a Sequence on a timer. It owns at most
// one timer at a time. All methods are safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	logger   *zap.Logger
	observer func(Event)
	loop     bool
	startAt  int

	seq     Sequence
	session string
	cfg     Config
	chunk   int // width of the visible window
	cursor  int
	state   State
	timer   clockwork.Timer
	gen     uint64

	pending  []Event
	flushing bool
}

// NewEngine creates an idle engine over seq.
func NewEngine(seq Sequence, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		clock:   clockwork.NewRealClock(),
		logger:  zap.NewNop(),
		seq:     seq,
		session: uuid.NewString(),
		cfg:     cfg.Clamp(),
	}
	e.chunk = e.cfg.ChunkSize
	for _, opt := range opts {
		opt(e)
	}
	e.cursor = e.snapLocked(e.startAt)
	return e
}

// Start begins playback. From Paused it resumes. From any other state it
// cancels a running timer and arms a new one using the current config, which
// is how callers apply a rate change immediately.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.state == Paused {
		e.resumeLocked()
	} else {
		e.cancelLocked()
		e.chunk = e.cfg.ChunkSize
		if e.seq.Len() == 0 {
			e.state = Finished
			e.emitLocked(EventFinished)
		} else {
			e.state = Playing
			e.armLocked()
			e.emitLocked(EventStarted)
			e.logger.Debug("playback started",
				zap.String("session", e.session),
				zap.Int("cursor", e.cursor),
				zap.Int("wpm", e.cfg.WPM),
				zap.Int("chunk", e.chunk),
			)
		}
	}
	e.mu.Unlock()
	e.flush()
}

// Pause stops the timer and freezes the cursor. It has no effect unless
// playing.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.state == Playing {
		e.cancelLocked()
		e.state = Paused
		e.emitLocked(EventPaused)
	}
	e.mu.Unlock()
	e.flush()
}

// Resume continues from the frozen cursor. It has no effect unless paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	if e.state == Paused {
		e.resumeLocked()
	}
	e.mu.Unlock()
	e.flush()
}

// Toggle pauses when playing and starts or resumes otherwise.
func (e *Engine) Toggle() {
	if e.State() == Playing {
		e.Pause()
		return
	}
	e.Start()
}

// Stop cancels the timer and returns to Idle at the first word.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.rewindLocked()
	e.emitLocked(EventStopped)
	e.mu.Unlock()
	e.flush()
}

// Reset behaves like Stop but reports EventReset.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.rewindLocked()
	e.emitLocked(EventReset)
	e.mu.Unlock()
	e.flush()
}

// Load replaces the sequence and begins a new idle session.
func (e *Engine) Load(seq Sequence) {
	e.LoadAt(seq, 0)
}

// LoadAt is Load with the cursor placed as WithStartAt(n) would.
func (e *Engine) LoadAt(seq Sequence, n int) {
	e.mu.Lock()
	e.seq = seq
	e.session = uuid.NewString()
	e.rewindLocked()
	e.cursor = e.snapLocked(n)
	e.emitLocked(EventLoaded)
	e.logger.Debug("sequence loaded", zap.String("session", e.session), zap.Int("words", seq.Len()))
	e.mu.Unlock()
	e.flush()
}

// SetConfig replaces the config. While playing, the new chunk size and
// period take effect at the next tick; the interval already in flight is not
// shortened or stretched. Otherwise they apply at once.
func (e *Engine) SetConfig(cfg Config) {
	e.mu.Lock()
	e.cfg = cfg.Clamp()
	if e.state != Playing {
		e.chunk = e.cfg.ChunkSize
	}
	e.mu.Unlock()
}

// SetWPM changes only the rate. See SetConfig.
func (e *Engine) SetWPM(wpm int) {
	cfg := e.Config()
	cfg.WPM = wpm
	e.SetConfig(cfg)
}

// SetChunkSize changes only the chunk size. See SetConfig.
func (e *Engine) SetChunkSize(n int) {
	cfg := e.Config()
	cfg.ChunkSize = n
	e.SetConfig(cfg)
}

// Config returns the current (clamped) config.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Cursor returns the index of the first visible word.
func (e *Engine) Cursor() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// Progress returns cursor / len. An empty sequence reports 1 once finished
// and 0 before.
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progressLocked()
}

// Window returns the bounds of the visible chunk, end exclusive.
func (e *Engine) Window() (start, end int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.windowLocked()
}

// Chunk returns the visible words.
func (e *Engine) Chunk() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	start, end := e.windowLocked()
	return e.seq.Slice(start, end)
}

// Sequence returns the sequence being revealed.
func (e *Engine) Sequence() Sequence {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}

// Snapshot returns the whole session state in one consistent read.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	start, end := e.windowLocked()
	return Snapshot{
		Session:  e.session,
		State:    e.state,
		Cursor:   e.cursor,
		Start:    start,
		End:      end,
		Chunk:    e.chunk,
		Len:      e.seq.Len(),
		Progress: e.progressLocked(),
		Config:   e.cfg,
	}
}

func (e *Engine) resumeLocked() {
	e.state = Playing
	e.armLocked()
	e.emitLocked(EventResumed)
}

func (e *Engine) rewindLocked() {
	e.cancelLocked()
	e.cursor = 0
	e.chunk = e.cfg.ChunkSize
	e.state = Idle
}

// armLocked replaces any running timer with one for the current period.
func (e *Engine) armLocked() {
	e.cancelLocked()
	gen := e.gen
	e.timer = e.clock.AfterFunc(e.cfg.Interval(), func() { e.tick(gen) })
}

// cancelLocked stops the timer. A callback that already fired sees the
// generation change and does nothing.
func (e *Engine) cancelLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
}

func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.state != Playing {
		e.mu.Unlock()
		return
	}
	e.timer = nil

	// The advance consumes the chunk on screen; a new chunk size only
	// shapes the window that follows.
	if e.cursor+e.chunk < e.seq.Len() {
		e.cursor += e.chunk
		e.chunk = e.cfg.ChunkSize
		e.armLocked()
		e.emitLocked(EventAdvanced)
	} else {
		e.finishLocked()
	}
	e.mu.Unlock()
	e.flush()
}

func (e *Engine) finishLocked() {
	e.cancelLocked()
	e.cursor = 0
	e.chunk = e.cfg.ChunkSize
	e.state = Finished
	e.emitLocked(EventFinished)
	e.logger.Debug("playback finished", zap.String("session", e.session), zap.Bool("loop", e.loop))

	if e.loop && e.seq.Len() > 0 {
		e.state = Playing
		e.armLocked()
		e.emitLocked(EventStarted)
	}
}

// snapLocked rounds n down to a multiple of the chunk size, or 0 when n is
// outside the sequence.
func (e *Engine) snapLocked(n int) int {
	if n <= 0 || n >= e.seq.Len() {
		return 0
	}
	return n - n%e.chunk
}

func (e *Engine) windowLocked() (int, int) {
	return e.cursor, min(e.cursor+e.chunk, e.seq.Len())
}

func (e *Engine) progressLocked() float64 {
	n := e.seq.Len()
	if n == 0 {
		if e.state == Finished {
			return 1
		}
		return 0
	}
	return float64(e.cursor) / float64(n)
}

func (e *Engine) emitLocked(kind EventKind) {
	if e.observer == nil {
		return
	}
	start, end := e.windowLocked()
	e.pending = append(e.pending, Event{
		Kind:     kind,
		Session:  e.session,
		State:    e.state,
		Cursor:   e.cursor,
		Start:    start,
		End:      end,
		Progress: e.progressLocked(),
	})
}

// flush delivers queued events. Only one goroutine delivers at a time; a
// call made while another is delivering leaves its events to that one.
func (e *Engine) flush() {
	e.mu.Lock()
	if e.flushing {
		e.mu.Unlock()
		return
	}
	e.flushing = true
	for len(e.pending) > 0 {
		batch := e.pending
		e.pending = nil
		e.mu.Unlock()
		for _, ev := range batch {
			e.observer(ev)
		}
		e.mu.Lock()
	}
	e.flushing = false
	e.mu.Unlock()
}

// Period returns the tick interval implied by the current config.
func (e *Engine) Period() time.Duration {
	return e.Config().Interval()
}
