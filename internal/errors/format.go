package errors

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	errHeader = color.New(color.FgRed, color.Bold)
	errTitle  = color.New(color.FgWhite, color.Bold)
	hintLabel = color.New(color.FgCyan)
)

// Format returns a formatted error message for terminal display.
func (e *AutofeError) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	if e.Code != "" {
		b.WriteString(errHeader.Sprint("ERROR "))
		b.WriteString(errTitle.Sprint(e.Code + ": "))
		b.WriteString(e.Message)
	} else {
		b.WriteString(errHeader.Sprint("ERROR: "))
		b.WriteString(e.Message)
	}
	b.WriteString("\n\n")

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.Wrapped != nil {
		b.WriteString("  ")
		b.WriteString(e.Wrapped.Error())
		b.WriteString("\n\n")
	}

	if e.Suggestion != "" {
		b.WriteString("  ")
		b.WriteString(hintLabel.Sprint("Hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n")
	}

	return b.String()
}

// FormatCompact returns a compact single-line error format.
func (e *AutofeError) FormatCompact() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

// PrintError prints a formatted error to stderr.
func PrintError(err error) {
	if ae, ok := err.(*AutofeError); ok {
		fmt.Fprint(os.Stderr, ae.Format())
		return
	}
	fmt.Fprintf(os.Stderr, "\n%s %s\n\n", errHeader.Sprint("ERROR:"), err.Error())
}

// wrapText wraps text to the specified width.
func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	var current strings.Builder

	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}

	if current.Len() > 0 {
		lines = append(lines, current.String())
	}

	return lines
}
