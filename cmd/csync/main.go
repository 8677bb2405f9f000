package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"csync-go/internal/app"
	"csync-go/internal/config"
	"csync-go/internal/csync"
	"csync-go/internal/model"
	"csync-go/internal/server"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp loads the config and creates a CSyncApp. The caller must defer app.Close().
func newApp() (*app.CSyncApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewCSyncApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// loadConfig reads the config file and applies environment overrides.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config (run `csync config init` first): %w", err)
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

var rootCmd = &cobra.Command{
	Use:   "csync",
	Short: "Course content synchronizer and indexer",
	Long:  "csync mirrors course content from a Canvas-style LMS to local storage and keeps per-course remote search indexes up to date.",
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download new course content and upload it to the index",
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID, _ := cmd.Flags().GetInt64("course-id")
		skipUpload, _ := cmd.Flags().GetBool("skip-upload")
		uploadOnly, _ := cmd.Flags().GetBool("upload-only")
		yes, _ := cmd.Flags().GetBool("yes")
		if skipUpload && uploadOnly {
			return fmt.Errorf("--skip-upload and --upload-only are mutually exclusive")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if courseID == 0 && !yes && term.IsTerminal(int(os.Stdin.Fd())) {
			ok, err := confirmAllCourses(cmd.Context(), a)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted.")
				return nil
			}
		}

		report, err := a.RunSync(cmd.Context(), csync.SyncOptions{
			CourseID:   courseID,
			SkipUpload: skipUpload,
			UploadOnly: uploadOnly,
		})
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		printReport(report)
		return nil
	},
}

// confirmAllCourses lists every course an unscoped run would touch and
// asks the operator to confirm.
func confirmAllCourses(ctx context.Context, a *app.CSyncApp) (bool, error) {
	courses := a.Courses(ctx)
	if len(courses) == 0 {
		return true, nil
	}
	fmt.Printf("This run covers %d courses:\n", len(courses))
	for _, course := range courses {
		fmt.Printf("  %-10d %-14s %s\n", course.ID, course.Code, course.Name)
	}
	answer, err := promptLine("Continue? [y/N]: ")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

func printReport(report *model.Report) {
	stats := report.Stats
	fmt.Printf("Run complete in %.1fs (%s)\n", report.DurationSeconds, report.Operation)
	fmt.Printf("  Courses:   %d processed, %d with denied file areas\n", stats.CoursesProcessed, stats.CoursesDenied)
	fmt.Printf("  Files:     %d seen, %d downloaded, %d skipped, %d failed, %d inaccessible\n",
		stats.FilesTotal, stats.Downloaded, stats.Skipped, stats.Failed, stats.Inaccessible)
	fmt.Printf("  Uploads:   %d uploaded, %d failed\n", stats.Uploaded, stats.UploadFailed)
	fmt.Printf("  Transfer:  %s\n", humanBytes(stats.BytesDownloaded))

	if len(stats.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(stats.Errors))
		for _, e := range stats.Errors {
			target := e.Course
			if e.File != "" {
				target += "/" + e.File
			}
			fmt.Printf("  %s: %s\n", target, e.Error)
		}
	}
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Compare remote content against the index without syncing",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.Status(cmd.Context())
		if err != nil {
			return err
		}

		if asJSON {
			data, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Index status: %s\n", st.Status)
		fmt.Printf("  Remote files:  %d\n", st.CanvasFilesTotal)
		fmt.Printf("  Indexed files: %d\n", st.IndexedFilesTotal)
		fmt.Printf("  Missing files: %d\n", st.MissingFilesCount)

		if len(st.MissingByCourse) > 0 {
			courses := make([]string, 0, len(st.MissingByCourse))
			for course := range st.MissingByCourse {
				courses = append(courses, course)
			}
			sort.Strings(courses)
			fmt.Println("\nMissing by course:")
			for _, course := range courses {
				fmt.Printf("  %-40s %d\n", course, st.MissingByCourse[course])
			}
		}
		if len(st.SampleOfMissing) > 0 {
			fmt.Println("\nSample of missing files:")
			for _, relPath := range st.SampleOfMissing {
				fmt.Printf("  %s\n", relPath)
			}
		}
		return nil
	},
}

// courses command
var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List active courses visible to the configured token",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		courses := a.Courses(cmd.Context())
		if len(courses) == 0 {
			fmt.Println("No active courses found.")
			return nil
		}
		for _, course := range courses {
			fmt.Printf("%-10d %-14s %s\n", course.ID, course.Code, course.Name)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recent sync runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.ListRuns(limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No sync runs recorded.")
			return nil
		}

		for _, run := range runs {
			duration := ""
			if !run.FinishedAt.IsZero() {
				duration = run.FinishedAt.Sub(run.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("%-8s  %-14s  %s  %-10s  %s\n",
				shortID(run.ID),
				run.Operation,
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.Status,
				duration,
			)
		}
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the status and sync-trigger API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runner := csync.NewRunner(a.Logger(), csync.RealClock{})
		srv := server.New(a, runner, a.Logger(), server.NewMetrics(), a.Config().Server)
		return srv.Serve(ctx)
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		canvasURL, _ := cmd.Flags().GetString("canvas-url")
		if canvasURL == "" {
			canvasURL, err = promptLine("Canvas URL (e.g. https://canvas.example.edu): ")
			if err != nil {
				return err
			}
		}
		if canvasURL == "" {
			return fmt.Errorf("a Canvas URL is required")
		}

		token, err := promptSecret("Canvas access token (empty to rely on CANVAS_ACCESS_TOKEN): ")
		if err != nil {
			return err
		}
		apiKey, err := promptSecret("OpenAI API key (empty to rely on OPENAI_API_KEY): ")
		if err != nil {
			return err
		}

		cfg := config.NewConfig(canvasURL, defaults["base_dir"])
		cfg.CanvasToken = token
		cfg.Index.APIKey = apiKey

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Canvas URL: %s\n", canvasURL)
		fmt.Printf("Data dir:   %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Canvas URL:    %s\n", cfg.CanvasURL)
		fmt.Printf("Canvas token:  %s\n", maskSecret(cfg.CanvasToken))
		fmt.Printf("Root dir:      %s\n", cfg.RootDir)
		fmt.Printf("Log dir:       %s\n", cfg.LogDir)
		fmt.Printf("Mirror:        %s\n", cfg.Mirror.Type)
		if cfg.Mirror.Type == "s3" {
			fmt.Printf("  Bucket:      %s\n", cfg.Mirror.S3Bucket)
			fmt.Printf("  Prefix:      %s\n", cfg.Mirror.S3Prefix)
			fmt.Printf("  Region:      %s\n", cfg.Mirror.S3Region)
		}
		fmt.Printf("Database:      %s\n", cfg.Database.Type)
		fmt.Printf("Index:         %s\n", cfg.Index.Type)
		fmt.Printf("  API key:     %s\n", maskSecret(cfg.Index.APIKey))
		fmt.Printf("Server addr:   %s\n", cfg.Server.Addr)
		return nil
	},
}

// promptLine reads one line of visible input from stdin.
func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", nil
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// promptSecret reads input without echoing when stdin is a terminal,
// falling back to a visible read otherwise.
func promptSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(prompt)
	}
	fmt.Print(prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

// version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the csync version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("csync %s\n", version)
	},
}

func init() {
	syncCmd.Flags().Int64("course-id", 0, "Sync a single course by its Canvas ID")
	syncCmd.Flags().Bool("skip-upload", false, "Download and reconcile only, without uploading")
	syncCmd.Flags().Bool("upload-only", false, "Upload existing local artifacts without crawling")
	syncCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt for unscoped runs")

	statusCmd.Flags().Bool("json", false, "Print the report as JSON")

	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")

	configInitCmd.Flags().String("canvas-url", "", "Canvas base URL (prompted when omitted)")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
