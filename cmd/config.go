package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/sheetlens/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set sheetlens configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		fmt.Printf("listen_addr: %s\n", c.ListenAddr)
		fmt.Printf("cache_ttl_sec: %d\n", c.CacheTTLSec)
		fmt.Printf("http_timeout_sec: %d\n", c.HTTPTimeoutSec)
		fmt.Printf("max_upload_mb: %d\n", c.MaxUploadMB)
		if c.SheetsBaseURL != "" {
			fmt.Printf("sheets_base_url: %s\n", c.SheetsBaseURL)
		}
		fmt.Printf("placeholder: %q\n", c.Placeholder)
		fmt.Printf("decimal_comma: %t\n", c.DecimalComma)
		fmt.Printf("filter_max_distinct: %d\n", c.FilterMaxDistinct)
		fmt.Printf("large_rows_threshold: %d\n", c.LargeRowsThreshold)
		fmt.Printf("large_bytes_threshold: %d\n", c.LargeBytesThreshold)
		fmt.Printf("sample_rows: %d\n", c.SampleRows)
		fmt.Printf("sample_seed: %d\n", c.SampleSeed)
		fmt.Printf("default_theme: %s\n", c.DefaultTheme)
		fmt.Printf("session_idle_min: %d\n", c.SessionIdleMin)
		fmt.Printf("chart_width: %d\n", c.ChartWidth)
		fmt.Printf("chart_height: %d\n", c.ChartHeight)
		fmt.Printf("log_level: %s\n", c.LogLevel)
		if c.LogFile != "" {
			fmt.Printf("log_file: %s\n", c.LogFile)
		}
		fmt.Printf("log_json: %t\n", c.LogJSON)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
