package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	cfgpkg "github.com/KaramelBytes/sheetlens/internal/config"
)

const ordersCSV = "City,Sales,Date\nParis,10,2024-01-01\nLyon,5,2024-01-02\nParis,7,2024-01-03\nNice,3,2024-01-04\n"

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) {
	t.Helper()
	if err := execCmd(args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

func execCmd(args ...string) error {
	// Reset sticky flags that may persist Changed state across invocations
	reset := func(fl *pflag.Flag) {
		if fl.Value.Type() != "stringArray" {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
	fltValues, fltSearch = nil, nil
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func setup(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "orders.csv")
	if err := os.WriteFile(path, []byte(ordersCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestCLI_InspectWritesOverview(t *testing.T) {
	src := setup(t)
	out := filepath.Join(filepath.Dir(src), "overview.md")
	runCmd(t, "inspect", src, "-o", out)

	md := readFile(t, out)
	for _, want := range []string{"[DATASET SUMMARY]", "File: orders.csv", "Rows: 4", "[PIVOT]", "| All | "} {
		if !strings.Contains(md, want) {
			t.Fatalf("overview missing %q:\n%s", want, md)
		}
	}
}

func TestCLI_InspectSeveralInputs(t *testing.T) {
	src := setup(t)
	dir := filepath.Join(filepath.Dir(src), "summaries")
	err := execCmd("inspect", src, filepath.Join(filepath.Dir(src), "missing.csv"), "-o", dir)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 inputs failed") {
		t.Fatalf("expected partial failure, got %v", err)
	}
	if !strings.Contains(readFile(t, filepath.Join(dir, "orders.summary.md")), "Rows: 4") {
		t.Fatalf("summary for the readable input not written")
	}
}

func TestCLI_FilterToCSVAndExcel(t *testing.T) {
	src := setup(t)
	out := filepath.Join(filepath.Dir(src), "paris.csv")
	runCmd(t, "filter", src, "--col", "City=Paris,Nice", "--search", "City=par", "-o", out)
	want := "City,Sales,Date\nParis,10,2024-01-01\nParis,7,2024-01-03\n"
	if got := readFile(t, out); got != want {
		t.Fatalf("filtered csv:\n%q\nwant\n%q", got, want)
	}

	xlsx := filepath.Join(filepath.Dir(src), "paris.xlsx")
	runCmd(t, "filter", src, "--col", "City=Paris", "--format", "xlsx", "-o", xlsx)
	if !strings.HasPrefix(readFile(t, xlsx), "PK") {
		t.Fatalf("expected a zip container for xlsx output")
	}

	if err := execCmd("filter", src, "--col", "Region=North", "-o", out); err == nil {
		t.Fatalf("expected unknown column error")
	}
}

func TestCLI_FilterQuotedValuesAndVerbatimSearch(t *testing.T) {
	dir := filepath.Dir(setup(t))
	src := filepath.Join(dir, "cities.csv")
	if err := os.WriteFile(src, []byte("City,Sales\n\"Paris, TX\",1\nParis,2\nNice,3\nNew York,4\nYorkshire,5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "picked.csv")
	runCmd(t, "filter", src, "--delimiter", ",", "--col", `City="Paris, TX"`, "--col", "City=Nice", "-o", out)
	if got, want := readFile(t, out), "City,Sales\n\"Paris, TX\",1\nNice,3\n"; got != want {
		t.Fatalf("quoted values:\n%q\nwant\n%q", got, want)
	}

	runCmd(t, "filter", src, "--delimiter", ",", "--search", "City= york", "-o", out)
	if got, want := readFile(t, out), "City,Sales\nNew York,4\n"; got != want {
		t.Fatalf("verbatim search:\n%q\nwant\n%q", got, want)
	}

	if err := execCmd("filter", src, "--col", `City="Paris`, "-o", out); err == nil {
		t.Fatalf("expected error for an unterminated quote")
	}
}

func TestCLI_PivotWithMargin(t *testing.T) {
	src := setup(t)
	out := filepath.Join(filepath.Dir(src), "pivot.csv")
	runCmd(t, "pivot", src, "--rows", "City", "--values", "Sales", "-o", out)
	want := "City,Sales\nLyon,5\nNice,3\nParis,17\nAll,25\n"
	if got := readFile(t, out); got != want {
		t.Fatalf("pivot csv:\n%q\nwant\n%q", got, want)
	}

	if err := execCmd("pivot", src, "--rows", "Sales", "--values", "City", "--agg", "mean", "-o", out); err == nil {
		t.Fatalf("expected error for mean over a text column")
	}
	if err := execCmd("pivot", src, "--rows", "City", "--values", "Sales", "--agg", "median"); err == nil {
		t.Fatalf("expected error for unknown aggregation")
	}
}

func TestCLI_ChartOutputs(t *testing.T) {
	src := setup(t)
	dir := filepath.Dir(src)

	png := filepath.Join(dir, "sales.png")
	runCmd(t, "chart", src, "--type", "Pie", "--x", "City", "--y", "Sales", "-o", png)
	if !strings.HasPrefix(readFile(t, png), "\x89PNG") {
		t.Fatalf("expected png output")
	}

	html := filepath.Join(dir, "sales.html")
	runCmd(t, "chart", src, "--type", "Line", "--x", "Date", "--y", "Sales", "--theme", "Dark", "-o", html)
	page := readFile(t, html)
	if !strings.Contains(page, "--bg:#0c0c0c") || !strings.Contains(page, "<svg") {
		t.Fatalf("unexpected html output")
	}

	csv := filepath.Join(dir, "data.csv")
	runCmd(t, "chart", src, "--x", "Date", "--y", "Sales", "--format", "csv", "-o", csv)
	if got := readFile(t, csv); !strings.HasPrefix(got, "Date,Sales\n2024-01-01,10\n") {
		t.Fatalf("unexpected chart data: %q", got)
	}

	if err := execCmd("chart", src, "--type", "Candlestick", "--x", "Date", "--y", "Sales", "-o", png); err == nil {
		t.Fatalf("expected candlestick arity error")
	}
	if err := execCmd("chart", src, "--x", "City", "--y", "Sales"); err == nil {
		t.Fatalf("expected refusal to write png to stdout")
	}
}

func TestCLI_ConfigSetPersists(t *testing.T) {
	setup(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	runCmd(t, "--config", path, "config", "set", "sample_rows", "25")
	runCmd(t, "--config", path, "config", "set", "default_theme", "lavender")

	c, err := cfgpkg.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.SampleRows != 25 || c.DefaultTheme != "Lavender" {
		t.Fatalf("config not persisted: %+v", c)
	}
	if err := execCmd("--config", path, "config", "set", "api_key", "x"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}
