package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"spesecli/internal/core"
	"spesecli/internal/view"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

const columnGap = 2

// table renders aligned columns. Widths are measured with lipgloss so
// styled and multi-byte cells (the rupee sign) line up.
type table struct {
	headers []string
	rows    [][]string
	styles  []lipgloss.Style
}

func newTable(headers ...string) *table {
	return &table{headers: headers}
}

func (t *table) row(cells ...string) {
	t.styledRow(lipgloss.NewStyle(), cells...)
}

func (t *table) styledRow(style lipgloss.Style, cells ...string) {
	t.rows = append(t.rows, cells)
	t.styles = append(t.styles, style)
}

func (t *table) render(w io.Writer) {
	widths := make([]int, len(t.headers))
	measure := func(cells []string) {
		for i, c := range cells {
			if i < len(widths) && lipgloss.Width(c) > widths[i] {
				widths[i] = lipgloss.Width(c)
			}
		}
	}
	measure(t.headers)
	for _, r := range t.rows {
		measure(r)
	}

	line := func(cells []string) string {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i == len(widths)-1 {
				parts[i] = cell
				continue
			}
			parts[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+columnGap)
		}
		return strings.TrimRight(strings.Join(parts, ""), " ")
	}

	fmt.Fprintln(w, headerStyle.Render(line(t.headers)))
	for i, r := range t.rows {
		fmt.Fprintln(w, t.styles[i].Render(line(r)))
	}
}

func alertStyle(l core.AlertLevel) lipgloss.Style {
	switch l {
	case core.AlertExceeded:
		return errorStyle
	case core.AlertWarning:
		return warningStyle
	default:
		return lipgloss.NewStyle()
	}
}

func noteStyle(l view.Level) lipgloss.Style {
	switch l {
	case view.LevelSuccess:
		return successStyle
	case view.LevelWarning:
		return warningStyle
	case view.LevelError:
		return errorStyle
	default:
		return lipgloss.NewStyle()
	}
}

func money(m core.Money) string {
	return core.FormatCurrencyGrouped(m)
}

func addPeriodFlags(cmd *cobra.Command) {
	cmd.Flags().Int("month", 0, "Month (1-12)")
	cmd.Flags().Int("year", 0, "Year (e.g. 2024)")
}

// periodFromFlags reads --month and --year. With current set, a missing
// value is taken from today; otherwise missing values stay zero and the
// period is partial.
func periodFromFlags(cmd *cobra.Command, current bool, now time.Time) core.Period {
	month, _ := cmd.Flags().GetInt("month")
	year, _ := cmd.Flags().GetInt("year")
	p := core.Period{Month: month, Year: year}
	if current {
		today := core.CurrentPeriod(now)
		if p.Month == 0 {
			p.Month = today.Month
		}
		if p.Year == 0 {
			p.Year = today.Year
		}
	}
	return p
}
