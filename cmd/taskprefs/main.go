package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/hmiyake/taskprefs/internal/derive"
	"github.com/hmiyake/taskprefs/internal/legacy"
	"github.com/hmiyake/taskprefs/internal/lock"
	"github.com/hmiyake/taskprefs/internal/logging"
	"github.com/hmiyake/taskprefs/internal/model"
	"github.com/hmiyake/taskprefs/internal/prefs"
	"github.com/hmiyake/taskprefs/internal/setup"
	"github.com/hmiyake/taskprefs/internal/store"
	"github.com/hmiyake/taskprefs/internal/tasks"
	"github.com/hmiyake/taskprefs/internal/view"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(os.Args[2:])
	case "show":
		runShow(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "set":
		runSet(os.Args[2:])
	case "sort":
		runSort(os.Args[2:])
	case "counter":
		runCounter(os.Args[2:])
	case "migrate":
		runMigrate(os.Args[2:])
	case "version":
		fmt.Printf("taskprefs %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: taskprefs <command> [options]

commands:
  init [dir]                      initialize a workspace (default .taskprefs)
  show [dir]                      print the current derived task view
  watch [dir]                     stream the derived view as sources change
  set show-completed <bool> [dir] set the show-completed flag
  sort deadline on|off [dir]      toggle deadline sorting
  sort priority on|off [dir]      toggle priority sorting
  counter increment [dir]         increment the counter
  migrate [dir]                   force the legacy migration pass
  version                         print version`)
}

func workspaceDir(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return ".taskprefs"
}

// openRepo wires a store and repository for the workspace. The returned
// cleanup closes the legacy source and the store stream.
func openRepo(dir string) (*prefs.Repository, model.Config, func(), error) {
	cfg, err := setup.LoadConfig(dir)
	if err != nil {
		return nil, cfg, nil, err
	}

	logger := logging.New(os.Stderr, "store", logging.ParseLevel(cfg.Logging.Level))

	legacySrc, closeLegacy, err := openLegacy(dir, cfg)
	if err != nil {
		return nil, cfg, nil, err
	}

	st := store.New(dir, legacySrc, logger)
	cleanup := func() {
		st.Close()
		closeLegacy()
	}
	return prefs.NewRepository(st), cfg, cleanup, nil
}

func openLegacy(dir string, cfg model.Config) (legacy.Source, func(), error) {
	noop := func() {}
	if cfg.Legacy.SQLitePath != "" {
		src, err := legacy.OpenSQLiteSource(resolvePath(dir, cfg.Legacy.SQLitePath))
		if err != nil {
			return nil, noop, fmt.Errorf("open legacy database: %w", err)
		}
		return src, func() { src.Close() }, nil
	}
	if cfg.Legacy.FilePath != "" {
		return legacy.NewFileSource(resolvePath(dir, cfg.Legacy.FilePath)), noop, nil
	}
	return nil, noop, nil
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func runInit(args []string) {
	dir := workspaceDir(args)
	if err := setup.Run(dir); err != nil {
		fatal("init: %v", err)
	}
	fmt.Printf("initialized workspace at %s\n", dir)
}

func runShow(args []string) {
	dir := workspaceDir(args)
	repo, cfg, cleanup, err := openRepo(dir)
	if err != nil {
		fatal("show: %v", err)
	}
	defer cleanup()

	logger := logging.New(os.Stderr, "tasks", logging.ParseLevel(cfg.Logging.Level))
	src := tasks.NewSource(setup.TasksPath(dir, cfg), 0, logger)
	defer src.Close()

	taskList, err := src.Load()
	if err != nil {
		fatal("show: %v", err)
	}

	rec := repo.Current(context.Background())
	printView(derive.View(taskList, rec))
}

func runWatch(args []string) {
	dir := workspaceDir(args)

	fileLock := lock.NewFileLock(filepath.Join(dir, "locks", "taskprefs.lock"))
	if err := fileLock.TryLock(); err != nil {
		fatal("watch: %v", err)
	}
	defer fileLock.Unlock()

	repo, cfg, cleanup, err := openRepo(dir)
	if err != nil {
		fatal("watch: %v", err)
	}
	defer cleanup()

	level := logging.ParseLevel(cfg.Logging.Level)
	logger, logCloser, err := logging.OpenFile(dir, "watch", "watch", level)
	if err != nil {
		fatal("watch: %v", err)
	}
	defer logCloser.Close()

	debounce := time.Duration(cfg.Watcher.DebounceMs) * time.Millisecond
	src := tasks.NewSource(setup.TasksPath(dir, cfg), debounce, logger)
	defer src.Close()

	combiner := view.NewCombiner(repo, src)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		cancel()
	}()

	viewCh, unsub := combiner.Subscribe()
	defer unsub()
	go func() {
		for v := range viewCh {
			printView(v)
			fmt.Println("---")
		}
	}()

	if err := combiner.Run(ctx); err != nil {
		fatal("watch: %v", err)
	}
}

func runSet(args []string) {
	if len(args) < 2 || args[0] != "show-completed" {
		fatal("usage: taskprefs set show-completed <bool> [dir]")
	}
	value, err := strconv.ParseBool(args[1])
	if err != nil {
		fatal("set show-completed: %v", err)
	}

	dir := workspaceDir(args[2:])
	repo, _, cleanup, err := openRepo(dir)
	if err != nil {
		fatal("set: %v", err)
	}
	defer cleanup()

	if err := repo.SetShowCompleted(context.Background(), value); err != nil {
		fatal("set show-completed: %v", err)
	}
	fmt.Printf("show_completed = %v\n", value)
}

func runSort(args []string) {
	if len(args) < 2 {
		fatal("usage: taskprefs sort deadline|priority on|off [dir]")
	}
	var enable bool
	switch args[1] {
	case "on":
		enable = true
	case "off":
		enable = false
	default:
		fatal("usage: taskprefs sort deadline|priority on|off [dir]")
	}

	dir := workspaceDir(args[2:])
	repo, _, cleanup, err := openRepo(dir)
	if err != nil {
		fatal("sort: %v", err)
	}
	defer cleanup()

	ctx := context.Background()
	switch args[0] {
	case "deadline":
		err = repo.EnableSortByDeadline(ctx, enable)
	case "priority":
		err = repo.EnableSortByPriority(ctx, enable)
	default:
		fatal("unknown sort key: %s", args[0])
	}
	if err != nil {
		fatal("sort: %v", err)
	}

	fmt.Printf("sort_order = %s\n", repo.Current(ctx).SortOrder)
}

func runCounter(args []string) {
	if len(args) < 1 || args[0] != "increment" {
		fatal("usage: taskprefs counter increment [dir]")
	}

	dir := workspaceDir(args[1:])
	repo, _, cleanup, err := openRepo(dir)
	if err != nil {
		fatal("counter: %v", err)
	}
	defer cleanup()

	ctx := context.Background()
	if err := repo.IncrementCounter(ctx); err != nil {
		fatal("counter increment: %v", err)
	}
	fmt.Printf("counter = %d\n", repo.Current(ctx).Counter)
}

func runMigrate(args []string) {
	dir := workspaceDir(args)
	repo, _, cleanup, err := openRepo(dir)
	if err != nil {
		fatal("migrate: %v", err)
	}
	defer cleanup()

	// Any access runs the lazy migration; a plain read makes it explicit.
	rec := repo.Current(context.Background())
	fmt.Printf("sort_order = %s\n", rec.SortOrder)
}

func printView(v model.TasksView) {
	fmt.Printf("show_completed=%v sort_order=%s counter=%d\n", v.ShowCompleted, v.SortOrder, v.Counter)
	if len(v.Tasks) == 0 {
		fmt.Println("(no tasks)")
		return
	}
	for _, task := range v.Tasks {
		status := " "
		if task.Completed {
			status = "x"
		}
		fmt.Printf("[%s] %-20s deadline=%d priority=%d\n", status, task.Title, task.Deadline, task.Priority)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
