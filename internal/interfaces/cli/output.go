package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/turtacn/fieldplan/pkg/errors"
)

// Styles are the lipgloss styles used for text output.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
}

// NewStyles returns the text styles. noColor yields unstyled output.
func NewStyles(noColor bool) Styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return Styles{plain, plain, plain, plain, plain, plain, plain}
	}
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD93D")),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF")),
		Value:   lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
	}
}

// tableProvider is implemented by results that can render as a table.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// textProvider is implemented by results with a styled text rendering.
type textProvider interface {
	Text(s Styles) string
}

// PrintResult outputs data in the format selected by --output.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return printJSON(cmd, data)
	}

	switch cliCtx.OutputFormat {
	case "json":
		return printJSON(cmd, data)
	case "table":
		if tp, ok := data.(tableProvider); ok {
			fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
			return nil
		}
	}
	return printText(cmd, cliCtx.Styles, data)
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printText(cmd *cobra.Command, s Styles, data interface{}) error {
	switch v := data.(type) {
	case textProvider:
		fmt.Fprint(cmd.OutOrStdout(), v.Text(s))
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

// PrintError writes err to stderr with its code when it has one.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	style := NewStyles(true).Error
	if cliCtx, ctxErr := GetCLIContext(cmd); ctxErr == nil {
		style = cliCtx.Styles.Error
	}
	fmt.Fprintln(cmd.ErrOrStderr(), style.Render("Error: "+err.Error()))
}

// PrintWarning writes a warning line to stderr.
func PrintWarning(cmd *cobra.Command, s Styles, msg string) {
	fmt.Fprintln(cmd.ErrOrStderr(), s.Warning.Render("Warning: "+msg))
}

// PrintSuccess writes a success line to stderr so stdout stays parseable.
func PrintSuccess(cmd *cobra.Command, s Styles, msg string) {
	fmt.Fprintln(cmd.ErrOrStderr(), s.Success.Render("OK: "+msg))
}

// ExitCode maps an error to the process exit status: 2 for bad input,
// 3 for a partial plan and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch code := errors.GetCode(err); {
	case code == errors.ErrCodeDegenerateGeometry, code == errors.ErrCodeInsufficientPoints:
		return 3
	case strings.HasPrefix(string(code), "IO_"),
		code == errors.ErrCodeBadRequest,
		code == errors.ErrCodeInvalidAgentCount:
		return 2
	}
	return 1
}

// FormatTable renders headers and rows as an aligned table. Widths are
// measured in terminal cells.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if w := lipgloss.Width(row[i]); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			sb.WriteString(padRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	sep := make([]string, len(headers))
	for i, w := range colWidths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

//Personal.AI order the ending
