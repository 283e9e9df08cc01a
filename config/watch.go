package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/desimkit/desim"
)

// LevelSetter is the subset of *desim.LevelFilter that LevelWatcher needs.
type LevelSetter interface {
	SetComponentLevel(component string, level desim.Level)
	SetGlobalLevel(level desim.Level)
}

// levelNames maps a RunConfig level string onto desim's severity levels.
var levelNames = map[string]desim.Level{
	"trace": desim.LevelTrace,
	"debug": desim.LevelDebug,
	"info":  desim.LevelInfo,
	"warn":  desim.LevelWarn,
	"error": desim.LevelError,
}

// LevelWatcher watches a config file for changes and pushes updated log
// levels into a LevelSetter as they land. Hot-reload is limited to log
// verbosity and never touches scheduled simulation state.
type LevelWatcher struct {
	feeder  Feeder
	setter  LevelSetter
	watcher *fsnotify.Watcher
	path    string
}

// NewLevelWatcher starts watching path (via feeder, which must read from
// the same path) and applying updates to setter as they occur.
func NewLevelWatcher(path string, feeder Feeder, setter LevelSetter) (*LevelWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}
	lw := &LevelWatcher{feeder: feeder, setter: setter, watcher: w, path: path}
	go lw.loop()
	return lw, nil
}

func (w *LevelWatcher) loop() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload()
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *LevelWatcher) reload() {
	cfg, err := w.feeder.Feed()
	if err != nil {
		return
	}
	if lvl, ok := levelNames[cfg.LogLevel]; ok {
		w.setter.SetGlobalLevel(lvl)
	}
	for component, name := range cfg.ComponentLogLevels {
		if lvl, ok := levelNames[name]; ok {
			w.setter.SetComponentLevel(component, lvl)
		}
	}
}

// Close stops the watcher.
func (w *LevelWatcher) Close() error {
	return w.watcher.Close()
}
