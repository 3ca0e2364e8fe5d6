package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// settleDelay lets the fuzzer finish writing a bug file before it is read.
const settleDelay = 100 * time.Millisecond

// OutcomeHandler receives the result of every bug file reduced while
// watching.
type OutcomeHandler func(*Outcome, error)

// StartWatching reduces every bug file created under dirs until ctx is done
// or StopWatching is called.
func (e *Engine) StartWatching(ctx context.Context, dirs []string, handle OutcomeHandler) error {
	if e.isWatching {
		return fmt.Errorf("already watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}

	for _, dir := range dirs {
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			watcher.Close()
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}

	e.watcher = watcher
	e.watchDirs = dirs
	e.isWatching = true
	e.done = make(chan struct{})
	go e.watchLoop(ctx, handle)
	return nil
}

// StopWatching closes the watcher and waits for the loop to exit.
func (e *Engine) StopWatching() error {
	if !e.isWatching {
		e.logger.Warn("Not watching")
		return nil
	}

	e.isWatching = false
	err := e.watcher.Close()
	<-e.done
	return err
}

// Wait blocks until the watch loop exits.
func (e *Engine) Wait() {
	if e.done != nil {
		<-e.done
	}
}

func (e *Engine) watchLoop(ctx context.Context, handle OutcomeHandler) {
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-e.watcher.Events:
			if !ok {
				return
			}
			e.handleFileEvent(ctx, event, handle)
		case err, ok := <-e.watcher.Errors:
			if !ok {
				return
			}
			e.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

func (e *Engine) handleFileEvent(ctx context.Context, event fsnotify.Event, handle OutcomeHandler) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := e.watcher.Add(event.Name); err != nil {
				e.logger.Error("Error watching directory", zap.String("dir", event.Name), zap.Error(err))
			}
			return
		}
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 || !strings.HasSuffix(event.Name, ".smt2") {
		return
	}

	// wait for the write to settle so partial files are not read
	select {
	case <-ctx.Done():
		return
	case <-time.After(settleDelay):
	}

	e.logger.Info("Bug file detected", zap.String("file", event.Name))
	out, err := e.ReduceChain(ctx, event.Name)
	if err != nil {
		e.logger.Error("Error reducing bug", zap.String("file", event.Name), zap.Error(err))
	}
	if handle != nil {
		handle(out, err)
	}
}
