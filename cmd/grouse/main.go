package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattjoyce/grouse/internal/complaint"
	"github.com/mattjoyce/grouse/internal/config"
	"github.com/mattjoyce/grouse/internal/lock"
	"github.com/mattjoyce/grouse/internal/log"
	"github.com/mattjoyce/grouse/internal/server"
	"github.com/mattjoyce/grouse/internal/slack"
	"github.com/mattjoyce/grouse/internal/storage"
	"github.com/mattjoyce/grouse/internal/tui/watch"
	"gopkg.in/yaml.v3"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	// --- NOUNS ---
	case "system":
		os.Exit(runSystemNoun(args))
	case "config":
		os.Exit(runConfigNoun(args))
	case "complaint":
		os.Exit(runComplaintNoun(args))

	// --- ROOT VERBS ---
	case "watch":
		if hasHelpFlag(args) {
			printWatchHelp()
			os.Exit(0)
		}
		os.Exit(runWatch(args))
	case "version":
		fmt.Printf("grouse version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`grouse - Slack slash-command complaint gateway

Usage:
  grouse <noun> <action> [flags]

Core Resources (Nouns):
  system     Gateway lifecycle and health
  config     Configuration and integrity
  complaint  Recorded complaints

System Commands:
  system start      Start the gateway in the foreground
  system status     Query a running gateway's health endpoint

Config Commands:
  config check      Validate syntax, integrity, and required fields
  config lock       Authorize current config state (update integrity hash)
  config show       Print the resolved configuration (secrets redacted)

Complaint Commands:
  complaint count   Print the number of recorded complaints
  complaint list    List recent complaints, newest first

General:
  watch             Live terminal monitor for a running gateway
  version           Show version information
  help              Show this help message

Use 'grouse <noun> help' for resource-specific flags.
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printSystemNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSystemNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "start":
		if hasHelpFlag(actionArgs) {
			printSystemStartHelp()
			return 0
		}
		return runStart(actionArgs)
	case "status":
		if hasHelpFlag(actionArgs) {
			printSystemStatusHelp()
			return 0
		}
		return runStatus(actionArgs)
	case "help":
		printSystemNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printConfigNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "check":
		if hasHelpFlag(actionArgs) {
			printConfigCheckHelp()
			return 0
		}
		return runConfigCheck(actionArgs)
	case "lock":
		if hasHelpFlag(actionArgs) {
			printConfigLockHelp()
			return 0
		}
		return runConfigLock(actionArgs)
	case "show":
		if hasHelpFlag(actionArgs) {
			printConfigShowHelp()
			return 0
		}
		return runConfigShow(actionArgs)
	case "help":
		printConfigNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func runComplaintNoun(args []string) int {
	if len(args) < 1 {
		printComplaintNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printComplaintNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "count":
		if hasHelpFlag(actionArgs) {
			printComplaintCountHelp()
			return 0
		}
		return runComplaintCount(actionArgs)
	case "list":
		if hasHelpFlag(actionArgs) {
			printComplaintListHelp()
			return 0
		}
		return runComplaintList(actionArgs)
	case "help":
		printComplaintNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown complaint action: %s\n", action)
		return 1
	}
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func printSystemNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: grouse system <action>")
	fmt.Fprintln(w, "Actions: start, status")
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: grouse config <action> [flags]")
	fmt.Fprintln(w, "Actions: check, lock, show")
}

func printComplaintNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: grouse complaint <action> [flags]")
	fmt.Fprintln(w, "Actions: count, list")
}

func printSystemStartHelp() {
	fmt.Println("Usage: grouse system start [--config PATH]")
	fmt.Println("Start the gateway in the foreground.")
}

func printSystemStatusHelp() {
	fmt.Println("Usage: grouse system status [--config PATH] [--url URL] [--json]")
	fmt.Println("Query a running gateway's /healthz endpoint.")
}

func printConfigCheckHelp() {
	fmt.Println("Usage: grouse config check [--config PATH] [--json]")
	fmt.Println("Validate configuration syntax, integrity hash, and required fields.")
}

func printConfigLockHelp() {
	fmt.Println("Usage: grouse config lock [--config PATH] [-v|--verbose] [--dry-run]")
	fmt.Println("Authorize current configuration state by regenerating the integrity hash.")
}

func printConfigShowHelp() {
	fmt.Println("Usage: grouse config show [--config PATH] [--json]")
	fmt.Println("Print the resolved configuration with secrets redacted.")
}

func printComplaintCountHelp() {
	fmt.Println("Usage: grouse complaint count [--config PATH]")
	fmt.Println("Print the number of recorded complaints.")
}

func printComplaintListHelp() {
	fmt.Println("Usage: grouse complaint list [--config PATH] [--limit N] [--json]")
	fmt.Println("List recent complaints, newest first.")
}

func printWatchHelp() {
	fmt.Println("Usage: grouse watch [flags]")
	fmt.Println()
	fmt.Println("Real-time terminal monitor for a running gateway.")
	fmt.Println("Shows gateway health, recent complaints, and the live event stream.")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --url URL        Gateway base URL (default: http://127.0.0.1:8080)")
	fmt.Println("  --token TOKEN    Admin bearer token (or GROUSE_ADMIN_TOKEN env var)")
	fmt.Println("  --config PATH    Config to read admin.token from when --token is unset")
	fmt.Println()
	fmt.Println("Keybindings:")
	fmt.Println("  q, Ctrl+C        Quit")
	fmt.Println("  r                Refresh health and complaints")
	fmt.Println("  Up/Down          Scroll complaints")
}

// --- ACTION IMPLEMENTATIONS ---

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	if *configPath == "" {
		discovered, err := config.DiscoverConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		*configPath = discovered
		fmt.Fprintf(os.Stderr, "Using discovered config: %s\n", *configPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFile)
	logger := log.WithComponent("main")
	logger.Info("grouse starting", "version", version, "config", *configPath)

	pidLockPath := getPIDLockPath(cfg)
	pidLock, err := lock.AcquirePIDLock(pidLockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", pidLockPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLockPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open complaint store", "backend", cfg.Storage.Backend, "error", err)
		return 1
	}
	defer closeStore()
	logger.Info("complaint store ready", "backend", cfg.Storage.Backend)

	authenticator, err := slack.NewAuthenticator(slack.AuthenticatorConfig{
		SigningSecret: cfg.Slack.SigningSecret,
		Version:       cfg.Slack.Version,
		Leeway:        cfg.Slack.Leeway,
	})
	if err != nil {
		logger.Error("failed to build request authenticator", "error", err)
		return 1
	}

	srv := server.New(server.Config{
		Listen:       cfg.Listen,
		CommandPath:  cfg.Slack.CommandPath,
		MaxBodySize:  cfg.Slack.MaxBodySize,
		Subject:      cfg.Subject,
		Backend:      cfg.Storage.Backend,
		AdminEnabled: cfg.Admin.Enabled,
		AdminToken:   cfg.Admin.Token,
	}, authenticator, store, log.WithComponent("api"))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("grouse running (press Ctrl+C to stop)")

	if err := srv.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("gateway failed", "error", err)
		return 1
	}

	logger.Info("grouse stopped")
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	baseURL := fs.String("url", "", "Gateway base URL (default derived from the config listen address)")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	url := *baseURL
	if url == "" {
		cfg, err := loadConfigForTool(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
			return 1
		}
		url = "http://" + cfg.Listen
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url + "/healthz")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Gateway unreachable: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read health response: %v\n", err)
		return 1
	}
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Gateway unhealthy: %s\n", resp.Status)
		return 1
	}

	if *jsonOut {
		fmt.Println(string(body))
		return 0
	}

	var health server.HealthzResponse
	if err := json.Unmarshal(body, &health); err != nil {
		fmt.Fprintf(os.Stderr, "Malformed health response: %v\n", err)
		return 1
	}

	fmt.Printf("Status:     %s\n", health.Status)
	fmt.Printf("Uptime:     %s\n", time.Duration(health.UptimeSeconds)*time.Second)
	fmt.Printf("Storage:    %s\n", health.StorageBackend)
	fmt.Printf("Complaints: %d\n", health.ComplaintsTotal)
	return 0
}

func runConfigCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	type checkReport struct {
		Valid   bool   `json:"valid"`
		Listen  string `json:"listen,omitempty"`
		Backend string `json:"backend,omitempty"`
		Error   string `json:"error,omitempty"`
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		if *jsonOut {
			data, _ := json.MarshalIndent(checkReport{Valid: false, Error: err.Error()}, "", "  ")
			fmt.Println(string(data))
		} else {
			fmt.Fprintf(os.Stderr, "Configuration check FAILED: %v\n", err)
		}
		return 1
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(checkReport{
			Valid:   true,
			Listen:  cfg.Listen,
			Backend: cfg.Storage.Backend,
		}, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	fmt.Println("Configuration check PASSED.")
	fmt.Printf("  listen:  %s\n", cfg.Listen)
	fmt.Printf("  storage: %s\n", cfg.Storage.Backend)
	if cfg.Admin.Enabled {
		fmt.Println("  admin:   enabled")
	} else {
		fmt.Println("  admin:   disabled")
	}
	return 0
}

func runConfigLock(args []string) int {
	var configPath string
	var verbose, verboseShort, dryRun bool

	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration file or directory")
	fs.BoolVar(&verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&verboseShort, "v", false, "Verbose output")
	fs.BoolVar(&dryRun, "dry-run", false, "Compute the hash without writing .checksums")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	isVerbose := verbose || verboseShort

	resolved, err := resolveConfigFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve config: %v\n", err)
		return 1
	}

	report, err := config.GenerateChecksums(resolved, dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to lock config: %v\n", err)
		return 1
	}

	if isVerbose {
		fmt.Printf("  HASH %s: %s\n", filepath.Base(report.ConfigPath), report.Hash)
		if dryRun {
			fmt.Printf("  DRY-RUN .checksums: %s (not written)\n", report.ChecksumPath)
		} else {
			fmt.Printf("  WROTE .checksums: %s\n", report.ChecksumPath)
		}
	}

	if dryRun {
		fmt.Printf("Dry run completed for %s (no files written)\n", report.ConfigPath)
	} else {
		fmt.Printf("Successfully locked configuration: %s\n", report.ConfigPath)
	}
	return 0
}

func runConfigShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}

	shown := redactForDisplay(cfg)
	if *jsonOut {
		data, _ := json.MarshalIndent(shown, "", "  ")
		fmt.Println(string(data))
	} else {
		data, _ := yaml.Marshal(shown)
		fmt.Print(string(data))
	}
	return 0
}

func runComplaintCount(args []string) int {
	fs := flag.NewFlagSet("count", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open complaint store: %v\n", err)
		return 1
	}
	defer closeStore()

	count, err := store.Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count failed: %v\n", err)
		return 1
	}

	fmt.Printf("Recorded complaints: %d\n", count)
	return 0
}

func runComplaintList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	limit := fs.Int("limit", 20, "Maximum number of complaints to list")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}
	if *limit < 1 {
		fmt.Fprintf(os.Stderr, "Error: --limit must be positive\n")
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open complaint store: %v\n", err)
		return 1
	}
	defer closeStore()

	recs, err := store.Recent(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
		return 1
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(recs, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	if len(recs) == 0 {
		fmt.Println("No complaints recorded.")
		return 0
	}
	for _, rec := range recs {
		line := fmt.Sprintf("%s  %-14s %s", rec.At.Local().Format("2006-01-02 15:04"), rec.Reporter, rec.Text)
		if rec.Channel != "" {
			line += fmt.Sprintf("  (#%s)", rec.Channel)
		}
		fmt.Println(line)
	}
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("url", "http://127.0.0.1:8080", "Gateway base URL")
	token := fs.String("token", os.Getenv("GROUSE_ADMIN_TOKEN"), "Admin bearer token")
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if *token == "" {
		if cfg, err := loadConfigForTool(*configPath); err == nil {
			*token = cfg.Admin.Token
		}
	}
	if *token == "" {
		fmt.Fprintln(os.Stderr, "Error: admin token required. Use --token, GROUSE_ADMIN_TOKEN, or admin.token in the config.")
		return 1
	}

	m := watch.New(*apiURL, *token)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}

// --- HELPERS ---

func loadConfigForTool(configPath string) (*config.Config, error) {
	if configPath == "" {
		discovered, err := config.DiscoverConfig()
		if err != nil {
			return nil, err
		}
		configPath = discovered
	}
	return config.Load(configPath)
}

// resolveConfigFile resolves an optional --config value to a concrete file
// path without loading it. config lock must work on a file whose hash does
// not match yet.
func resolveConfigFile(configPath string) (string, error) {
	if configPath == "" {
		discovered, err := config.DiscoverConfig()
		if err != nil {
			return "", err
		}
		configPath = discovered
	}
	if info, err := os.Stat(configPath); err == nil && info.IsDir() {
		configPath = filepath.Join(configPath, "config.yaml")
	}
	return configPath, nil
}

func openStore(ctx context.Context, cfg *config.Config) (complaint.Store, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := storage.OpenSQLite(ctx, cfg.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite database: %w", err)
		}
		return complaint.NewSQLiteStore(db), func() { db.Close() }, nil
	case config.BackendDynamoDB:
		client, err := complaint.NewDynamoClient(ctx, complaint.DynamoClientOptions{
			Region:          cfg.Storage.DynamoDB.Region,
			Endpoint:        cfg.Storage.DynamoDB.Endpoint,
			AccessKeyID:     cfg.Storage.DynamoDB.AccessKeyID,
			SecretAccessKey: cfg.Storage.DynamoDB.SecretAccessKey,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("build dynamodb client: %w", err)
		}
		return complaint.NewDynamoStore(client, cfg.Storage.DynamoDB.Table), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func redactForDisplay(cfg *config.Config) *config.Config {
	shown := *cfg
	shown.Slack.SigningSecret = redactSecret(shown.Slack.SigningSecret)
	shown.Admin.Token = redactSecret(shown.Admin.Token)
	shown.Storage.DynamoDB.SecretAccessKey = redactSecret(shown.Storage.DynamoDB.SecretAccessKey)
	return &shown
}

func redactSecret(v string) string {
	if v == "" {
		return ""
	}
	return "[REDACTED]"
}

func getPIDLockPath(cfg *config.Config) string {
	if cfg.Storage.Backend == config.BackendSQLite {
		dbPath := cfg.Storage.Path
		dbDir := filepath.Dir(dbPath)
		dbBase := filepath.Base(dbPath)
		ext := filepath.Ext(dbBase)
		return filepath.Join(dbDir, dbBase[:len(dbBase)-len(ext)]+".pid")
	}
	return filepath.Join(os.TempDir(), "grouse.pid")
}
