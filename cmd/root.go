package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/sheetlens/internal/config"
	"github.com/KaramelBytes/sheetlens/internal/loader"
	"github.com/KaramelBytes/sheetlens/internal/logging"
	"github.com/KaramelBytes/sheetlens/internal/normalize"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	logLevel string
	// HTTP flags (override config if set)
	flagHTTPTimeoutSec int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "sheetlens",
	Short: "sheetlens: explore CSV, Excel and Google Sheets data",
	Long: `sheetlens loads a CSV or Excel file or a public Google Sheet, normalizes its columns
and lets you filter rows, build pivot tables and render charts, from the command line
or from the browser dashboard started with "sheetlens serve".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.sheetlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds for Google Sheets (overrides config)")
}

func loadConfig() {
	if err := cfgpkg.LoadDotEnv(""); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("log-level") && logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if _, err := logging.Setup(logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
		JSON:  cfg.LogJSON,
		Debug: debug,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	}
}

// settings returns the loaded configuration, or defaults when none loaded.
func settings() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Defaults()
	}
	return cfg
}

func newLoader(delimiter rune) *loader.Loader {
	c := settings()
	norm := normalize.DefaultOptions()
	if c.Placeholder != "" {
		norm.Placeholder = c.Placeholder
	}
	norm.DecimalComma = c.DecimalComma
	return loader.New(loader.Options{
		CacheTTL:      time.Duration(c.CacheTTLSec) * time.Second,
		HTTPTimeout:   time.Duration(c.HTTPTimeoutSec) * time.Second,
		MaxBytes:      int64(c.MaxUploadMB) << 20,
		Normalize:     norm,
		SheetsBaseURL: c.SheetsBaseURL,
		Delimiter:     delimiter,
	})
}
