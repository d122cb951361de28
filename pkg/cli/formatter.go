// Lodestar: a multi-provider manga search engine with adaptive failover.
// Copyright (C) 2025 Lodestar contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"Lodestar/pkg/errors"
)

// Formatter handles all CLI output formatting.
type Formatter struct {
	// Writer is where the formatted output will be written.
	Writer io.Writer

	// DisableColor disables colorized output.
	DisableColor bool

	// Styles for different elements.
	HeaderStyle      *color.Color
	TitleStyle       *color.Color
	SuccessStyle     *color.Color
	ErrorStyle       *color.Color
	WarningStyle     *color.Color
	InfoStyle        *color.Color
	SecondaryStyle   *color.Color
	SectionStyle     *color.Color
	DetailLabelStyle *color.Color
	DetailValueStyle *color.Color
	IDStyle          *color.Color
	NumberStyle      *color.Color
}

// NewFormatter creates a new CLI formatter with default settings.
func NewFormatter() *Formatter {
	f := &Formatter{
		Writer: os.Stdout,
	}
	f.initStyles()
	return f
}

func (f *Formatter) initStyles() {
	if f.DisableColor {
		color.NoColor = true
	}

	f.HeaderStyle = color.New(color.Bold, color.FgCyan)
	f.TitleStyle = color.New(color.Bold, color.FgWhite)
	f.SuccessStyle = color.New(color.FgGreen)
	f.ErrorStyle = color.New(color.FgRed)
	f.WarningStyle = color.New(color.FgYellow)
	f.InfoStyle = color.New(color.FgBlue)
	f.SecondaryStyle = color.New(color.FgHiBlack)
	f.SectionStyle = color.New(color.Underline, color.FgHiCyan)
	f.DetailLabelStyle = color.New(color.FgHiBlue)
	f.DetailValueStyle = color.New(color.FgWhite)
	f.IDStyle = color.New(color.FgHiMagenta)
	f.NumberStyle = color.New(color.FgHiYellow)
}

// PrintHeader prints a header section.
func (f *Formatter) PrintHeader(text string) {
	_, _ = f.HeaderStyle.Fprintln(f.Writer, text)
	f.PrintDivider()
}

// PrintTitle prints a title.
func (f *Formatter) PrintTitle(text string) {
	_, _ = f.TitleStyle.Fprintln(f.Writer, text)
}

// PrintSuccess prints a success message.
func (f *Formatter) PrintSuccess(text string) {
	_, _ = f.SuccessStyle.Fprintln(f.Writer, text)
}

// PrintError prints an error message.
func (f *Formatter) PrintError(text string) {
	_, _ = f.ErrorStyle.Fprintln(f.Writer, text)
}

// PrintWarning prints a warning message.
func (f *Formatter) PrintWarning(text string) {
	_, _ = f.WarningStyle.Fprintln(f.Writer, text)
}

// PrintInfo prints an informational message.
func (f *Formatter) PrintInfo(text string) {
	_, _ = f.InfoStyle.Fprintln(f.Writer, text)
}

// PrintDetail prints a labeled detail.
func (f *Formatter) PrintDetail(label, value string) {
	_, _ = f.DetailLabelStyle.Fprintf(f.Writer, "%s: ", label)
	_, _ = f.DetailValueStyle.Fprintln(f.Writer, value)
}

// PrintDivider prints a horizontal divider.
func (f *Formatter) PrintDivider() {
	_, _ = fmt.Fprintln(f.Writer, strings.Repeat("-", 80))
}

// PrintSection prints a section header.
func (f *Formatter) PrintSection(text string) {
	_, _ = fmt.Fprintln(f.Writer, "")
	_, _ = f.SectionStyle.Fprintln(f.Writer, text)
	_, _ = fmt.Fprintln(f.Writer, "")
}

// PrintNewLine prints a blank line.
func (f *Formatter) PrintNewLine() {
	_, _ = fmt.Fprintln(f.Writer, "")
}

// FormatID formats an ID string.
func (f *Formatter) FormatID(id string) string {
	return f.IDStyle.Sprint(id)
}

// FormatNumber formats a number with styling.
func (f *Formatter) FormatNumber(num interface{}) string {
	return f.NumberStyle.Sprintf("%v", num)
}

// FormatScore colors a health score: green when healthy, yellow when
// degraded, red when failing.
func (f *Formatter) FormatScore(score float64) string {
	text := fmt.Sprintf("%.1f", score)
	switch {
	case score >= 75:
		return f.SuccessStyle.Sprint(text)
	case score >= 40:
		return f.WarningStyle.Sprint(text)
	default:
		return f.ErrorStyle.Sprint(text)
	}
}

// FormatState colors a breaker state string.
func (f *Formatter) FormatState(state string) string {
	switch state {
	case "CLOSED":
		return f.SuccessStyle.Sprint(state)
	case "HALF_OPEN":
		return f.WarningStyle.Sprint(state)
	case "OPEN":
		return f.ErrorStyle.Sprint(state)
	default:
		return state
	}
}

// PrintTable prints data in a table format.
func (f *Formatter) PrintTable(headers []string, data [][]string) {
	table := tablewriter.NewTable(f.Writer)
	table.Configure(func(tableConfig *tablewriter.Config) {
		tableConfig.Header.Alignment.Global = tw.AlignLeft
		tableConfig.Row.Alignment.Global = tw.AlignLeft
		tableConfig.Header.Padding.Global = tw.Padding{
			Left:  " ",
			Right: " ",
		}
		tableConfig.Row.Padding.Global = tw.Padding{
			Left:  " ",
			Right: " ",
		}
	})

	table.Header(headers)
	if err := table.Bulk(data); err != nil {
		return
	}
	_ = table.Render()
}

// HandleError prints any error with provider attribution and category when
// available. It returns true if an error was handled, false otherwise.
func (f *Formatter) HandleError(err error) bool {
	if err == nil {
		return false
	}

	var perr *errors.ProviderError
	if errors.As(err, &perr) {
		f.PrintError(fmt.Sprintf("[%s] %s failed: %v (%s)", perr.Provider, perr.Op, perr.Err, errors.Categorize(err)))
		return true
	}

	f.PrintError(fmt.Sprintf("[ERROR] %s", err.Error()))
	return true
}
