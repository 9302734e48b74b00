package main

import (
	"flag"

	"github.com/metcalfc/pacer/internal/config"
	"github.com/metcalfc/pacer/internal/extract"
	"github.com/metcalfc/pacer/internal/logging"
	"github.com/metcalfc/pacer/internal/reader"
	"github.com/metcalfc/pacer/internal/state"
	"go.uber.org/zap"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// options are the flags shared by the terminal and desktop front-ends.
type options struct {
	wpm         int
	chunk       int
	mode        string
	loop        bool
	fresh       bool
	allSections bool
	configPath  string
	logFile     string
	version     bool
	set         map[string]bool
}

func registerFlags(fs *flag.FlagSet) *options {
	o := &options{}
	fs.IntVar(&o.wpm, "w", reader.DefaultWPM, "Words per minute (50-1000)")
	fs.IntVar(&o.chunk, "c", reader.DefaultChunkSize, "Words shown per tick (1-5)")
	fs.StringVar(&o.mode, "mode", "rsvp", "Presentation mode: rsvp or highlight")
	fs.BoolVar(&o.loop, "loop", false, "Start over after the last chunk")
	fs.BoolVar(&o.fresh, "fresh", false, "Ignore saved reading position")
	fs.BoolVar(&o.allSections, "all-sections", false, "Read every EPUB section instead of the first")
	fs.StringVar(&o.configPath, "config", config.DefaultPath(), "Config file (.yaml or .toml)")
	fs.StringVar(&o.logFile, "log", "", "Write debug logs to this file")
	fs.BoolVar(&o.version, "v", false, "Show version information")
	fs.BoolVar(&o.version, "version", false, "Show version information")
	return o
}

// markSet records which flags the user passed explicitly.
func (o *options) markSet(fs *flag.FlagSet) {
	o.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
}

// session is the wiring shared by both front-ends: config, logger,
// extractor and the optional position store.
type session struct {
	cfg       config.Config
	logger    *zap.Logger
	extractor *extract.Dispatcher
	store     *state.Store
	reveal    reader.Config
	mode      reader.Mode
	loop      bool
	fresh     bool
}

// newSession resolves settings in order: config file, saved preferences,
// explicit flags. terminal selects a logger that stays off the screen.
func newSession(o *options, terminal bool) (*session, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logFile != "" {
		cfg.Log.File = o.logFile
		cfg.Log.Debug = true
	}
	logOpts := logging.Options{Debug: cfg.Log.Debug, File: cfg.Log.File}
	var logger *zap.Logger
	if terminal {
		logger, err = logging.ForTerminal(logOpts)
	} else {
		logger, err = logging.New(logOpts)
	}
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, logger: logger, loop: cfg.Reveal.Loop, fresh: o.fresh}
	s.reveal, s.mode = cfg.RevealDefaults()

	if !cfg.State.Disabled {
		path := cfg.State.Path
		if path == "" {
			path = state.DefaultPath()
		}
		store, err := state.Open(path)
		if err != nil {
			logger.Warn("position store unavailable", zap.String("path", path), zap.Error(err))
		} else {
			s.store = store
			s.applyPreferences()
		}
	}

	if o.set["w"] {
		s.reveal.WPM = o.wpm
	}
	if o.set["c"] {
		s.reveal.ChunkSize = o.chunk
	}
	if o.set["mode"] {
		mode, err := reader.ParseMode(o.mode)
		if err != nil {
			return nil, err
		}
		s.mode = mode
	}
	if o.set["loop"] {
		s.loop = o.loop
	}
	s.reveal = s.reveal.Clamp()

	var extractOpts []extract.Option
	extractOpts = append(extractOpts, extract.WithLogger(logger))
	if cfg.Extract.EPUBAllSections || o.allSections {
		extractOpts = append(extractOpts, extract.WithAllSections())
	}
	s.extractor = extract.New(extractOpts...)
	return s, nil
}

func (s *session) applyPreferences() {
	prefs, ok, err := s.store.Preferences()
	if err != nil {
		s.logger.Warn("failed to read preferences", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	if prefs.WPM > 0 {
		s.reveal.WPM = prefs.WPM
	}
	if prefs.ChunkSize > 0 {
		s.reveal.ChunkSize = prefs.ChunkSize
	}
	if mode, err := reader.ParseMode(prefs.Mode); err == nil && prefs.Mode != "" {
		s.mode = mode
	}
}

// startAt returns the saved position for a document.
func (s *session) startAt(hash string) int {
	if s.store == nil || s.fresh || hash == "" {
		return 0
	}
	return s.store.GetPosition(hash)
}

// save records where reading stopped and the current settings. A finished
// document forgets its position.
func (s *session) save(hash string, snap reader.Snapshot, mode reader.Mode) {
	if s.store == nil {
		return
	}
	if hash != "" {
		var err error
		if snap.State == reader.Finished || snap.Cursor == 0 {
			err = s.store.Clear(hash)
		} else {
			err = s.store.SetPosition(hash, snap.Cursor)
		}
		if err != nil {
			s.logger.Warn("failed to save position", zap.Error(err))
		}
	}
	err := s.store.SavePreferences(state.Preferences{
		WPM:       snap.Config.WPM,
		ChunkSize: snap.Config.ChunkSize,
		Mode:      mode.String(),
	})
	if err != nil {
		s.logger.Warn("failed to save preferences", zap.Error(err))
	}
}

func (s *session) close() {
	if s.store != nil {
		s.store.Close()
	}
	_ = s.logger.Sync()
}
