package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davidmdm/ansi"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Verbose controls whether debug messages are being printed.
var Verbose bool

// IndentationLevel controls the amount of indentation of log messages.
var IndentationLevel = 0

// Color controls whether level prefixes are colored.
var Color = term.IsTerminal(int(os.Stderr.Fd()))

const (
	indentField  = "indent"
	successField = "success"
)

var (
	cyan   = ansi.MakeStyle(ansi.FgCyan)
	green  = ansi.MakeStyle(ansi.FgGreen)
	yellow = ansi.MakeStyle(ansi.FgYellow)
	red    = ansi.MakeStyle(ansi.FgRed)
)

var logger = newLogger(os.Stderr)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(formatter{})
	l.SetLevel(logrus.DebugLevel)
	return l
}

// formatter renders entries the way the console expects them: indented, with
// a colored level prefix and without any trailing decoration. Messages carry
// their own newlines.
type formatter struct{}

func (formatter) Format(entry *logrus.Entry) ([]byte, error) {
	indent, _ := entry.Data[indentField].(int)

	var prefix string
	switch entry.Level {
	case logrus.DebugLevel:
		prefix = "Debug: "
		if Color {
			prefix = cyan.Sprint(prefix)
		}
	case logrus.WarnLevel:
		prefix = "Warning: "
		if Color {
			prefix = yellow.Sprint(prefix)
		}
	case logrus.ErrorLevel, logrus.FatalLevel:
		prefix = "Error: "
		if Color {
			prefix = red.Sprint(prefix)
		}
	case logrus.InfoLevel:
		if success, _ := entry.Data[successField].(bool); success {
			prefix = "Success: "
			if Color {
				prefix = green.Sprint(prefix)
			}
		}
	}

	return []byte(strings.Repeat("  ", indent) + prefix + entry.Message), nil
}

func entry() *logrus.Entry {
	return logger.WithField(indentField, IndentationLevel)
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Log prints an indented and formatted message to os.Stderr.
func Log(format string, a ...interface{}) {
	entry().Info(fmt.Sprintf(format, a...))
}

// Debug prints an indented and formatted debug message to os.Stderr if verbose output is selected.
func Debug(format string, a ...interface{}) {
	if Verbose {
		entry().Debug(fmt.Sprintf(format, a...))
	}
}

// Success prints an indented and formatted success message to os.Stderr.
func Success(format string, a ...interface{}) {
	entry().WithField(successField, true).Info(fmt.Sprintf(format, a...))
}

// Warning prints an indented and formatted warning to os.Stderr.
func Warning(format string, a ...interface{}) {
	entry().Warn(fmt.Sprintf(format, a...))
}

// Error prints an indented and formatted error message to os.Stderr.
func Error(format string, a ...interface{}) {
	entry().Error(fmt.Sprintf(format, a...))
}
