package theme

import (
	"fmt"
	"strings"
)

// Theme is a named dashboard palette.
type Theme struct {
	Name       string `json:"name"`
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	Sidebar    string `json:"sidebar"`
	Heading    string `json:"heading"`
	Accent     string `json:"accent"`
	AccentText string `json:"accent_text"`
	Hover      string `json:"hover"`
	Download   string `json:"download"`
	// Series seeds chart colors, starting with the theme's own accents.
	Series []string `json:"series"`
}

// Default is used for empty or unknown names.
const Default = "Light"

var base = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b", "#e377c2", "#7f7f7f"}

func series(accents ...string) []string {
	return append(accents, base...)
}

var catalog = []Theme{
	{Name: "Light", Background: "#f4f6fc", Foreground: "#000000", Sidebar: "#ffffff", Heading: "#0d47a1", Accent: "#2874f0", AccentText: "#ffffff", Hover: "#0b3d91", Download: "#ffc107", Series: series("#2874f0", "#ffc107")},
	{Name: "Dark", Background: "#0c0c0c", Foreground: "#ffd700", Sidebar: "#1a1a1a", Heading: "#ffd700", Accent: "#ffd700", AccentText: "#000000", Hover: "#e6c200", Download: "#e6c200", Series: series("#ffd700", "#e6c200")},
	{Name: "Royal", Background: "#0c0c0c", Foreground: "#ffd700", Sidebar: "#1a1a1a", Heading: "#ffd700", Accent: "#ffd700", AccentText: "#000000", Hover: "#e6c200", Download: "#e6c200", Series: series("#ffd700", "#e6c200")},
	{Name: "Pink", Background: "#f8bbd0", Foreground: "#880e4f", Sidebar: "#f48fb1", Heading: "#880e4f", Accent: "#880e4f", AccentText: "#ffffff", Hover: "#c2185b", Download: "#c2185b", Series: series("#880e4f", "#c2185b")},
	{Name: "Lavender", Background: "#e1bee7", Foreground: "#512da8", Sidebar: "#ce93d8", Heading: "#512da8", Accent: "#512da8", AccentText: "#ffffff", Hover: "#7e57c2", Download: "#7e57c2", Series: series("#512da8", "#7e57c2")},
	{Name: "Yellow", Background: "#fff59d", Foreground: "#f57f17", Sidebar: "#fff176", Heading: "#f57f17", Accent: "#f57f17", AccentText: "#ffffff", Hover: "#ff9800", Download: "#ff9800", Series: series("#f57f17", "#ff9800")},
	{Name: "Grey", Background: "#e0e0e0", Foreground: "#212121", Sidebar: "#bdbdbd", Heading: "#212121", Accent: "#212121", AccentText: "#ffffff", Hover: "#424242", Download: "#424242", Series: series("#212121", "#424242")},
	{Name: "Pale Red", Background: "#ffebee", Foreground: "#c62828", Sidebar: "#ef9a9a", Heading: "#c62828", Accent: "#c62828", AccentText: "#ffffff", Hover: "#d32f2f", Download: "#d32f2f", Series: series("#c62828", "#d32f2f")},
	{Name: "Pale Green", Background: "#e8f5e9", Foreground: "#388e3c", Sidebar: "#a5d6a7", Heading: "#388e3c", Accent: "#388e3c", AccentText: "#ffffff", Hover: "#43a047", Download: "#43a047", Series: series("#388e3c", "#43a047")},
	{Name: "Rainbow", Background: "#f1c40f", Foreground: "#2c3e50", Sidebar: "#9b59b6", Heading: "#3498db", Accent: "#3498db", AccentText: "#ffffff", Hover: "#2980b9", Download: "#e74c3c", Series: series("#3498db", "#e74c3c", "#9b59b6")},
	{Name: "Blue", Background: "#3498db", Foreground: "#ffffff", Sidebar: "#2980b9", Heading: "#ffffff", Accent: "#2980b9", AccentText: "#ffffff", Hover: "#1c638c", Download: "#e74c3c", Series: series("#1c638c", "#e74c3c")},
}

// All returns the catalog in menu order.
func All() []Theme {
	out := make([]Theme, len(catalog))
	copy(out, catalog)
	return out
}

// Names lists theme names in menu order.
func Names() []string {
	out := make([]string, len(catalog))
	for i, t := range catalog {
		out[i] = t.Name
	}
	return out
}

// Lookup finds a theme by name ignoring case. ok is false when the name is
// unknown, in which case the default theme is returned.
func Lookup(name string) (Theme, bool) {
	name = strings.TrimSpace(name)
	for _, t := range catalog {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return catalog[0], false
}

// CSS renders the theme as custom properties on :root.
func (t Theme) CSS() string {
	var b strings.Builder
	b.WriteString(":root{")
	for _, kv := range [][2]string{
		{"bg", t.Background}, {"fg", t.Foreground}, {"sidebar", t.Sidebar}, {"heading", t.Heading},
		{"accent", t.Accent}, {"accent-fg", t.AccentText}, {"hover", t.Hover}, {"download", t.Download},
	} {
		fmt.Fprintf(&b, "--%s:%s;", kv[0], kv[1])
	}
	b.WriteString("}")
	return b.String()
}
