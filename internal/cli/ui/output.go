package ui

import (
	"fmt"
	"io"
	"strings"
)

// Error prints a styled error line to w
func Error(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", ErrorIcon, ErrorStyle.Render(fmt.Sprintf(format, args...)))
}

// Success prints a styled success line to w
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", SuccessIcon, SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

// Info prints a styled informational line to w
func Info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", InfoIcon, InfoStyle.Render(fmt.Sprintf(format, args...)))
}

// Warning prints a styled warning line to w
func Warning(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", WarningIcon, WarningStyle.Render(fmt.Sprintf(format, args...)))
}

// OutputLine prints an unstyled line to w
func OutputLine(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

// MatchWriter prefixes each keyword match with the agent name and
// highlights it.
type MatchWriter struct {
	Name string
	W    io.Writer
}

func (m *MatchWriter) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	if _, err := fmt.Fprintf(m.W, "%s %s\n", DimStyle.Render("["+m.Name+"]"), MatchStyle.Render(line)); err != nil {
		return 0, err
	}
	return len(p), nil
}
