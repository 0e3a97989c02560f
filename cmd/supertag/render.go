package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func itoa(n int) string { return strconv.Itoa(n) }

// Styles for plain-terminal CLI output, matching codenerd's
// AdaptiveColor convention for its TUI theme but used here for simple
// one-line success/warning/muted prefixes rather than a full layout.
var (
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1a7f37", Dark: "#3fb950"}).Bold(true)
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9a6700", Dark: "#d29922"})
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#57606a", Dark: "#8b949e"})
	styleHeader  = lipgloss.NewStyle().Bold(true)
)

// printResult renders v as indented JSON when app.JSON is set, or via
// renderText otherwise. renderText is called lazily (only in text
// mode) since building a table is wasted work when JSON was asked for.
func printResult(v interface{}, renderText func() string) {
	if app.JSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		fmt.Println(string(data))
		return
	}
	fmt.Println(renderText())
}

func printSuccess(format string, args ...interface{}) {
	fmt.Println(styleSuccess.Render(fmt.Sprintf(format, args...)))
}

func printWarn(format string, args ...interface{}) {
	fmt.Println(styleWarn.Render(fmt.Sprintf(format, args...)))
}

func printMuted(format string, args ...interface{}) {
	fmt.Println(styleMuted.Render(fmt.Sprintf(format, args...)))
}

func printHeader(s string) {
	fmt.Println(styleHeader.Render(s))
}

// table renders rows of equal-width columns, tab-separated. Good
// enough for a terminal; the JSON path is there for anything piped.
func table(header []string, rows [][]string) string {
	var b strings.Builder
	if len(header) > 0 {
		b.WriteString(styleHeader.Render(strings.Join(header, "\t")))
		b.WriteString("\n")
	}
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
