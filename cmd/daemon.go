package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mackenziebowes/CanadaSpends/internal/apiclient"
	"github.com/mackenziebowes/CanadaSpends/internal/cli"
	"github.com/mackenziebowes/CanadaSpends/internal/config"
	"github.com/mackenziebowes/CanadaSpends/internal/daemon"
	"github.com/mackenziebowes/CanadaSpends/internal/logging"
	"github.com/mackenziebowes/CanadaSpends/internal/pipeline"
	"github.com/mackenziebowes/CanadaSpends/internal/rescache"
)

type daemonRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DataDir   string    `json:"data_dir"`
}

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonRedis        string
	flagDaemonNoWatch      bool
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the HTTP/SSE service for tax, budget and jurisdiction data",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	defaultPID := filepath.Join(pipeline.CacheDir(), "canadaspendsd.pid")
	defaultLog := filepath.Join(pipeline.CacheDir(), "canadaspendsd.log")

	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", defaultPID, "PID file path")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", defaultLog, "Log file path for detached mode")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	daemonCmd.Flags().StringVar(&flagDaemonRedis, "redis", "", "Redis address for the response cache (default from config)")
	daemonCmd.Flags().BoolVar(&flagDaemonNoWatch, "no-watch", false, "Disable filesystem watching, poll only")
	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// daemonAddr resolves the listen address from the flag, then config.
func daemonAddr(cfg config.Config) string {
	if flagDaemonAddr != "" {
		return flagDaemonAddr
	}
	if cfg.Daemon.Addr != "" {
		return cfg.Daemon.Addr
	}
	return "127.0.0.1:8787"
}

// daemonConfig maps the config file and flags onto the service config.
func daemonConfig(cfg config.Config) (daemon.Config, error) {
	province, income, err := personal(cfg)
	if err != nil {
		return daemon.Config{}, err
	}
	reductions, err := cfg.Reductions()
	if err != nil {
		return daemon.Config{}, err
	}

	interval := flagDaemonInterval
	if interval <= 0 {
		interval = time.Duration(cfg.Daemon.IntervalSec) * time.Second
	}

	return daemon.Config{
		DataDir:      dataDir(cfg),
		UseCache:     !flagNoCache,
		Watch:        !flagDaemonNoWatch,
		Interval:     interval,
		Addr:         daemonAddr(cfg),
		EventsBuffer: flagDaemonEventsBuffer,
		RateLimit:    cfg.Daemon.RateLimit,
		RateWindow:   time.Duration(cfg.Daemon.RateWindowSec) * time.Second,
		Province:     province,
		Income:       income,
		Threshold:    cfg.Breakdown.Threshold,
		Live:         cfg.Budget.Live,
		Reductions:   reductions,
	}, nil
}

func runDaemon(_ *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}

	if flagDaemonDetach {
		return startDaemonDetached()
	}

	return runDaemonForeground()
}

func startDaemonDetached() error {
	if err := ensureDaemonNotRunning(flagDaemonPIDFile); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := filterDetachArg(os.Args[1:])
	args = append(args, "--child")

	if err := os.MkdirAll(filepath.Dir(flagDaemonPIDFile), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}

	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	cmd := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	cmd.Stdout = logf
	cmd.Stderr = logf
	cmd.Stdin = nil
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", cmd.Process.Pid)
	fmt.Printf("  PID file: %s\n", flagDaemonPIDFile)
	fmt.Printf("  API: http://%s/v1/status\n", daemonAddr(loadConfig()))
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	return nil
}

func runDaemonForeground() error {
	if err := ensureDaemonNotRunning(flagDaemonPIDFile); err != nil {
		return err
	}

	cfg := loadConfig()
	dcfg, err := daemonConfig(cfg)
	if err != nil {
		return err
	}

	logPath := ""
	if flagDaemonChild {
		logPath = flagDaemonLogFile
	}
	logger, err := logging.New(flagVerbose, logPath)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := os.MkdirAll(filepath.Dir(flagDaemonPIDFile), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}

	pid := os.Getpid()
	if err := writePID(flagDaemonPIDFile, pid); err != nil {
		return err
	}
	defer func() { _ = os.Remove(flagDaemonPIDFile) }()

	state := daemonRuntimeState{
		PID:       pid,
		Addr:      dcfg.Addr,
		StartedAt: time.Now(),
		DataDir:   dcfg.DataDir,
	}
	_ = writeState(statePath(flagDaemonPIDFile), state)
	defer func() { _ = os.Remove(statePath(flagDaemonPIDFile)) }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	redisAddr := cfg.Daemon.RedisAddr
	if flagDaemonRedis != "" {
		redisAddr = flagDaemonRedis
	}
	cache, err := rescache.Open(ctx, redisAddr)
	redisOK := err == nil && redisAddr != ""
	if err != nil {
		logger.Warn("redis unavailable, caching responses in memory",
			zap.String("addr", redisAddr), zap.Error(err))
		cache = rescache.NewMemory()
	}
	defer func() { _ = cache.Close() }()

	svc := daemon.New(dcfg, logger, cache)

	if !flagDaemonChild {
		fmt.Printf("  canadaspends daemon listening on http://%s\n", dcfg.Addr)
		fmt.Printf("  Polling every %s from %s\n", dcfg.Interval, dcfg.DataDir)
		fmt.Printf("  Stop with: canadaspends daemon stop --pid-file %s\n", flagDaemonPIDFile)
	}
	logger.Info("daemon starting",
		zap.String("addr", dcfg.Addr),
		zap.String("data_dir", dcfg.DataDir),
		zap.Bool("watch", dcfg.Watch),
		zap.Bool("redis", redisOK))

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("daemon stopped", zap.Error(err))
		return err
	}
	logger.Info("daemon stopped")
	return nil
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	pid, err := readPID(flagDaemonPIDFile)
	if err != nil {
		fmt.Printf("  Daemon: not running (pid file not found)\n")
		return nil
	}

	alive := processAlive(pid)
	if !alive {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := daemonAddr(loadConfig())
	if st, err := readState(statePath(flagDaemonPIDFile)); err == nil && st.Addr != "" {
		addr = st.Addr
	}

	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	st, err := apiclient.New(addr).Status(ctxOrBackground(cmd))
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}

	fmt.Printf("  Uptime: %s\n", cli.FormatDuration(time.Since(st.StartedAt)))
	if st.LastPollAt.IsZero() {
		fmt.Printf("  Last poll: pending\n")
	} else {
		fmt.Printf("  Last poll: %s (%s)\n", st.LastPollAt.Local().Format(time.RFC3339), cli.FormatAgo(st.LastPollAt))
	}
	fmt.Printf("  Poll count: %d\n", st.PollCount)
	fmt.Printf("  Data dir: %s\n", st.DataDir)
	fmt.Printf("  Jurisdictions: %d (%d provincial, %d municipal)\n",
		st.Summary.Jurisdictions, st.Summary.Provincial, st.Summary.Municipal)
	fmt.Printf("  Spending: %s provincial, %s municipal\n",
		cli.FormatBillions(st.Summary.ProvincialSpending), cli.FormatBillions(st.Summary.MunicipalSpending))
	fmt.Printf("  Events: %d  Subscribers: %d\n", st.EventCount, st.SubscriberCount)
	if st.Watcher.Events > 0 {
		fmt.Printf("  Watcher: %d events, %d reloads, last %s\n",
			st.Watcher.Events, st.Watcher.Reloads, cli.FormatAgo(st.Watcher.LastEventTime))
	}
	for _, fe := range st.FileErrors {
		fmt.Println(cli.RenderWarning("skipped " + fe))
	}
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pid, err := readPID(flagDaemonPIDFile)
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			_ = os.Remove(flagDaemonPIDFile)
			_ = os.Remove(statePath(flagDaemonPIDFile))
			fmt.Printf("  Stopped daemon (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}

	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

func ensureDaemonNotRunning(pidFile string) error {
	pid, err := readPID(pidFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if processAlive(pid) {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	_ = os.Remove(pidFile)
	_ = os.Remove(statePath(pidFile))
	return nil
}

func writePID(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o600)
}

func readPID(path string) (int, error) {
	//nolint:gosec // daemon pid path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", path)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func statePath(pidFile string) string {
	return pidFile + ".json"
}

func writeState(path string, st daemonRuntimeState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func readState(path string) (daemonRuntimeState, error) {
	var st daemonRuntimeState
	//nolint:gosec // daemon state path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, err
	}
	return st, nil
}
