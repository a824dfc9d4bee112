package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"catalogcql/internal/batch"
	"catalogcql/internal/compiler"
	"catalogcql/internal/fieldmap"
)

func (a *app) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch PATTERN...",
		Short: "Recompile query files whenever they or the mapping change",
		Long: `Compile the query files matching the glob patterns, then keep watching.

A file is rechecked when it is written or created. When --mapping names a
file, editing it reloads the mapping and rechecks every file; a mapping
that fails to load is reported and the previous one stays in use.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			c, err := a.newCompiler(cmd)
			if err != nil {
				return err
			}
			w := &watcher{app: a, cmd: cmd, patterns: args, compiler: c}
			if path := mappingPath(cmd); path != "" {
				if w.mapping, err = filepath.Abs(path); err != nil {
					return err
				}
			}
			return w.run(ctx)
		},
	}
}

type watcher struct {
	*app
	cmd      *cobra.Command
	patterns []string
	mapping  string // absolute mapping path, or ""
	compiler *compiler.Compiler
}

func (w *watcher) run(ctx context.Context) error {
	logger := w.logger.With("component", "watch")

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fsw.Close() }()

	dirs := batch.WatchDirs(w.patterns)
	if w.mapping != "" {
		dirs = append(dirs, filepath.Dir(w.mapping))
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			logger.Warn("failed to watch directory", "dir", dir, "error", err)
		}
	}

	if err := w.checkAll(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			switch {
			case event.Name == w.mapping:
				w.reload(ctx, logger)
			case batch.Matches(event.Name, w.patterns):
				w.check(ctx, event.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("fsnotify error", "error", err)
		}
	}
}

func (w *watcher) reload(ctx context.Context, logger *slog.Logger) {
	m, err := fieldmap.LoadFile(w.mapping)
	if err != nil {
		logger.Error("reload mapping", "path", w.mapping, "error", err)
		_, _ = fmt.Fprintf(w.stdout, "mapping: %v\n", err)
		return
	}
	c, err := w.compilerFor(w.cmd, m)
	if err != nil {
		logger.Error("reload mapping", "path", w.mapping, "error", err)
		return
	}
	w.compiler = c
	logger.Info("mapping reloaded", "path", w.mapping, "version", m.Version)
	if err := w.checkAll(ctx); err != nil {
		logger.Error("recheck", "error", err)
	}
}

func (w *watcher) checkAll(ctx context.Context) error {
	paths, err := batch.Discover(w.patterns)
	if err != nil {
		return err
	}
	for _, path := range paths {
		w.check(ctx, path)
	}
	return nil
}

// check compiles one file and prints a summary line plus one line per
// failed query.
func (w *watcher) check(ctx context.Context, path string) {
	items, err := batch.ReadFiles([]string{path})
	if err != nil {
		_, _ = fmt.Fprintf(w.stdout, "%s: %v\n", path, err)
		return
	}
	outcomes, err := batch.Run(ctx, w.compiler, items, batch.Options{Logger: w.logger})
	if err != nil {
		return
	}
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	_, _ = fmt.Fprintf(w.stdout, "%s: %d queries, %d failed\n", path, len(outcomes), failed)
	for _, o := range outcomes {
		if o.Err != nil {
			_, _ = fmt.Fprintf(w.stdout, "  %s: %v\n", o.Source, o.Err)
		}
	}
}
