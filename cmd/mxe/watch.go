package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchDebounce groups the burst of events an editor emits on save.
const watchDebounce = 200 * time.Millisecond

// runWatch converts jobs once, then re-converts each file job when its
// source changes until ctx is canceled. URL jobs run only once.
func runWatch(ctx context.Context, b *batch, jobs []job, common commonFlags, env *Environment) error {
	printResults(b.run(ctx, jobs), common.quiet, common.verbose, env)

	index := watchIndex(jobs)
	if len(index) == 0 {
		return fmt.Errorf("%w: --watch needs at least one local file", ErrUsage)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	for _, dir := range watchDirs(index) {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	if !common.quiet {
		fmt.Fprintf(env.Stdout, "Watching %d file(s), press Ctrl+C to stop\n", len(index))
	}

	watchLoop(ctx, fsw.Events, fsw.Errors, index, watchDebounce, b.logger, func(changed []job) {
		printResults(b.run(ctx, changed), common.quiet, common.verbose, env)
	})
	return nil
}

// watchIndex maps cleaned source paths to their jobs.
func watchIndex(jobs []job) map[string]job {
	index := make(map[string]job, len(jobs))
	for _, j := range jobs {
		if j.URL {
			continue
		}
		index[filepath.Clean(j.InputPath)] = j
	}
	return index
}

// watchDirs returns the sorted parent directories of the indexed files.
// Watching directories survives editors that save by rename.
func watchDirs(index map[string]job) []string {
	var dirs []string
	for path := range index {
		dir := filepath.Dir(path)
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	slices.Sort(dirs)
	return dirs
}

// watchLoop collects changes to indexed files and calls onChange with
// them once no event arrived for debounce. It returns when ctx is done or
// the event channel closes.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error,
	index map[string]job, debounce time.Duration, logger *zap.Logger, onChange func([]job),
) {
	pending := make(map[string]job)
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			j, ok := index[filepath.Clean(ev.Name)]
			if !ok {
				continue
			}
			logger.Debug("source changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			pending[j.InputPath] = j
			timer.Reset(debounce)

		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]job, 0, len(pending))
			for _, j := range pending {
				changed = append(changed, j)
			}
			slices.SortFunc(changed, func(a, b job) int {
				return strings.Compare(a.InputPath, b.InputPath)
			})
			clear(pending)
			onChange(changed)
		}
	}
}
