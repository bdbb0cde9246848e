// Package watcher reports changes to session logs under a directory tree.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-claude-latency/internal/core/model"
	"github.com/penwyp/go-claude-latency/internal/util"
)

type FileWatcher struct {
	watcher *fsnotify.Watcher
	logger  util.LoggerInterface
	events  chan model.FileEvent
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// New watches every directory below each path. Directories created later
// are added as they appear.
func New(paths []string, logger util.LoggerInterface) (*FileWatcher, error) {
	if logger == nil {
		logger = util.NewNopLogger()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher: w,
		logger:  logger,
		events:  make(chan model.FileEvent, 100),
		done:    make(chan struct{}),
	}

	for _, path := range paths {
		if err := fw.addPath(path); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	fw.wg.Add(1)
	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) addPath(path string) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			fw.logger.Debugf("Skip watch path (error): %s - %v", p, err)
			return nil
		}
		if info.IsDir() {
			return fw.watcher.Add(p)
		}
		return nil
	})
}

func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()
	defer close(fw.events)

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addPath(event.Name); err != nil {
						fw.logger.Warnf("Failed to watch new directory %s: %v", event.Name, err)
					}
					continue
				}
			}

			if !IsSessionLog(event.Name) || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}

			select {
			case fw.events <- model.FileEvent{Path: event.Name, Operation: event.Op.String()}:
			case <-fw.done:
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("File monitoring error", util.F("error", err.Error()))

		case <-fw.done:
			return
		}
	}
}

// IsSessionLog reports whether path names a .jsonl file.
func IsSessionLog(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".jsonl")
}

// Events is closed after Close returns.
func (fw *FileWatcher) Events() <-chan model.FileEvent {
	return fw.events
}

func (fw *FileWatcher) Close() error {
	var err error
	fw.once.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
		fw.wg.Wait()
	})
	return err
}
