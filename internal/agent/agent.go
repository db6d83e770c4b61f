package agent

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mwantia/fabric/pkg/container"
	"github.com/robfig/cron/v3"

	"github.com/WyvernIXTL/staggered-file-backup/internal/config"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/backup"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/backup/retention"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/log"
)

// BackupAgent runs backups continuously: on a cron schedule, on source file
// changes, or both. Triggers are funneled into one worker so invocations
// against the target directory never overlap.
type BackupAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg    *config.Config
	sc     *container.ServiceContainer
	log    log.LoggerService
	runner *backup.Runner
}

func NewAgent(cfg *config.Config) *BackupAgent {
	logger := log.NewLoggerService("sfb", cfg.Log)

	return &BackupAgent{
		cfg:    cfg,
		sc:     container.NewServiceContainer(),
		log:    logger,
		runner: backup.NewRunner(logger.Named("backup")),
	}
}

func (ba *BackupAgent) setupServices() error {
	errs := container.Errors{}

	ba.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](ba.sc,
		container.With[log.LoggerService](),
		container.WithInstance(ba.log)))

	return errs.Errors()
}

func (ba *BackupAgent) Serve(ctx context.Context) error {
	if ba.cfg.Backup.Source == "" || ba.cfg.Backup.Target == "" {
		return fmt.Errorf("agent mode requires backup.source and backup.target to be configured")
	}
	if ba.cfg.Backup.Schedule == "" && !ba.cfg.Backup.Watch {
		return fmt.Errorf("agent mode requires backup.schedule and/or backup.watch")
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	ba.mutex.Lock()

	if err := ba.setupServices(); err != nil {
		ba.mutex.Unlock()
		return err
	}

	// Buffered by one: triggers arriving mid-run coalesce into a single
	// follow-up run instead of queueing.
	trigger := make(chan string, 1)

	if ba.cfg.Backup.Schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(ba.cfg.Backup.Schedule, func() {
			requestRun(trigger, "schedule")
		}); err != nil {
			ba.mutex.Unlock()
			return fmt.Errorf("invalid backup schedule %q: %w", ba.cfg.Backup.Schedule, err)
		}
		c.Start()
		defer c.Stop()

		ba.log.Info("Scheduled backups: %s", ba.cfg.Backup.Schedule)
	}

	if ba.cfg.Backup.Watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			ba.mutex.Unlock()
			return fmt.Errorf("failed to create source watcher: %w", err)
		}
		defer watcher.Close()

		// Watch the directory; the source file itself may be replaced
		// atomically (rename over), which drops a direct file watch.
		if err := watcher.Add(filepath.Dir(ba.cfg.Backup.Source)); err != nil {
			ba.mutex.Unlock()
			return fmt.Errorf("failed to watch source directory: %w", err)
		}

		ba.wait.Add(1)
		go ba.watchSource(ctx, watcher, trigger)

		ba.log.Info("Watching source file: %s", ba.cfg.Backup.Source)
	}

	ba.wait.Add(1)
	go ba.runLoop(ctx, trigger)

	ba.mutex.Unlock()
	<-ctx.Done()

	timeout, err := time.ParseDuration(ba.cfg.ShutdownTimeout)
	if err != nil {
		// Set default of 60 seconds if error
		timeout = 60 * time.Second
	}

	shutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := ba.sc.Cleanup(shutdown); err != nil {
		return fmt.Errorf("failed to complete service container cleanup: %w", err)
	}

	ba.wait.Wait()
	return nil
}

// runLoop consumes triggers one at a time; the target directory only ever
// sees a single active invocation.
func (ba *BackupAgent) runLoop(ctx context.Context, trigger <-chan string) {
	defer ba.wait.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-trigger:
			ba.log.Info("Backup triggered (%s)", reason)

			report, err := ba.runner.Run(ctx, backup.RunOptions{
				Source: ba.cfg.Backup.Source,
				Target: ba.cfg.Backup.Target,
				Policy: retention.Policy{
					Yearly:  ba.cfg.Backup.Keep.Yearly,
					Monthly: ba.cfg.Backup.Keep.Monthly,
					Daily:   ba.cfg.Backup.Keep.Daily,
					Latest:  ba.cfg.Backup.Keep.Latest,
				},
			})
			if err != nil {
				ba.log.Error("Backup run failed: %v", err)
				continue
			}

			ba.log.Info("Backup complete: %s (kept %d, deleted %d, failed %d)",
				report.BackupPath, len(report.Kept), len(report.Deleted), len(report.FailedDeletes))
		}
	}
}

// watchSource debounces filesystem events on the source file into triggers.
func (ba *BackupAgent) watchSource(ctx context.Context, watcher *fsnotify.Watcher, trigger chan<- string) {
	defer ba.wait.Done()

	debounce, err := time.ParseDuration(ba.cfg.Backup.WatchDebounce)
	if err != nil || debounce <= 0 {
		debounce = 5 * time.Second
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(ba.cfg.Backup.Source) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			ba.log.Debug("Source changed (%s), debouncing...", event.Op)
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			ba.log.Warn("Watcher error: %v", err)

		case <-timerC:
			timer = nil
			timerC = nil
			requestRun(trigger, "watch")
		}
	}
}

func requestRun(trigger chan<- string, reason string) {
	select {
	case trigger <- reason:
	default:
		// A run is already pending; coalesce.
	}
}
