package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dotstrings/internal/cache"
	"dotstrings/internal/filewalker"
	"dotstrings/internal/metrics"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) watchCmd() *cobra.Command {
	var (
		metricsAddr string
		debounce    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: "Re-parse .strings files as they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = a.cfg.MetricsAddr
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = a.cfg.WatchDebounce
			}

			if metricsAddr != "" {
				go func() {
					if err := metrics.Serve(ctx, metricsAddr); err != nil {
						log.Error().Err(err).Str("addr", metricsAddr).Msg("Metrics server failed")
					}
				}()
			}

			return runWatch(ctx, args[0], debounce, nil)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (default METRICS_ADDR)")
	cmd.Flags().DurationVar(&debounce, "debounce", 250*time.Millisecond, "Quiet period before re-parsing (default WATCH_DEBOUNCE)")

	return cmd
}

// runWatch parses every file under root once, then re-parses on change until
// ctx is cancelled. onBatch, if set, is called after each batch is handled.
func runWatch(ctx context.Context, root string, debounce time.Duration, onBatch func(changed []string)) error {
	w := filewalker.NewWalker()
	parseCache := cache.NewParseCache()

	discovered, err := w.Walk(root)
	if err != nil {
		return fmt.Errorf("walk input directory: %w", err)
	}
	for _, entry := range discovered {
		reparse(parseCache, entry.Path)
	}
	metrics.TrackedFiles.Set(float64(parseCache.Len()))
	log.Info().Int("files", parseCache.Len()).Str("root", root).Msg("Watching for changes")

	return watchWithFSNotify(ctx, root, debounce, func(changed []string) {
		for _, path := range changed {
			if _, ok := w.Match(path); !ok {
				continue
			}
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				parseCache.Forget(path)
				log.Info().Str("file", path).Msg("File removed")
				continue
			}
			reparse(parseCache, path)
		}
		metrics.TrackedFiles.Set(float64(parseCache.Len()))
		if onBatch != nil {
			onBatch(changed)
		}
	})
}

func reparse(parseCache *cache.ParseCache, path string) {
	start := time.Now()
	entries, changed, err := parseCache.ParseFile(path)
	if err == nil && !changed {
		metrics.FilesParsed.WithLabelValues(metrics.ResultUnchanged).Inc()
		return
	}
	metrics.ObserveParse(err, len(entries), time.Since(start))

	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Parse failed")
		return
	}
	log.Info().
		Str("file", path).
		Str("locale", filewalker.LocaleFromPath(path)).
		Int("entries", len(entries)).
		Msg("Parsed file")
}

func watchWithFSNotify(ctx context.Context, target string, debounce time.Duration, onChange func(changedPaths []string)) error {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	absTarget = filepath.Clean(absTarget)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addWatchRecursive(watcher, absTarget); err != nil {
		return err
	}

	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	pending := false
	pendingPaths := map[string]bool{}

	resetDebounce := func(path string) {
		pendingPaths[path] = true
		if pending {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		timer.Reset(debounce)
		pending = true
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			eventPath := filepath.Clean(event.Name)
			if shouldIgnoreWatchPath(eventPath) {
				continue
			}

			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(eventPath); statErr == nil && info.IsDir() {
					if err := addWatchRecursive(watcher, eventPath); err != nil {
						log.Warn().Err(err).Str("path", eventPath).Msg("Failed to watch new directory")
					}
				}
			}

			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			resetDebounce(eventPath)
		case <-timer.C:
			if pending {
				pending = false
				changed := make([]string, 0, len(pendingPaths))
				for path := range pendingPaths {
					changed = append(changed, path)
				}
				sort.Strings(changed)
				pendingPaths = map[string]bool{}
				onChange(changed)
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return watchErr
		}
	}
}

func addWatchRecursive(watcher *fsnotify.Watcher, root string) error {
	root = filepath.Clean(root)
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && filewalker.SkipDir(entry.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func shouldIgnoreWatchPath(path string) bool {
	base := filepath.Base(path)
	return base == ".DS_Store" || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".swx") || strings.HasPrefix(base, ".#")
}
