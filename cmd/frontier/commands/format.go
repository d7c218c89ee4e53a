package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// stdout 테스트에서 교체 가능
var stdout io.Writer = os.Stdout

// CommandMetadata describes one command run for the header
type CommandMetadata struct {
	Title   string
	Source  string // CSV 경로 또는 조회 구간
	Assets  []string
	Periods int
	RF      float64 // 연율
	P       float64
}

// PrintCommandHeader prints a formatted command header
func PrintCommandHeader(meta CommandMetadata) {
	fmt.Fprintln(stdout)
	PrintDoubleSeparator()
	fmt.Fprintf(stdout, "  %s\n", meta.Title)
	PrintSeparator()
	if meta.Source != "" {
		fmt.Fprintf(stdout, "  Source    : %s\n", meta.Source)
	}
	if len(meta.Assets) > 0 {
		fmt.Fprintf(stdout, "  Assets    : %s\n", strings.Join(meta.Assets, ", "))
	}
	if meta.Periods > 0 {
		fmt.Fprintf(stdout, "  Periods   : %d (P=%g)\n", meta.Periods, meta.P)
	}
	fmt.Fprintf(stdout, "  Risk-free : %s (annual)\n", pct(meta.RF))
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Fprintln(stdout, "───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Fprintln(stdout, "═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "⚠️  %s\n", message)
	fmt.Fprintln(stdout)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Fprintf(stdout, "✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(stdout, "❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Fprintf(stdout, "ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(stdout, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(stdout, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(stdout, "  ")
		}
	}
	fmt.Fprintln(stdout)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Fprintf(stdout, "   %-*s : %s\n", keyWidth, key, value)
}

// pct formats a decimal as a percentage (0.1234 → 12.34%)
func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
