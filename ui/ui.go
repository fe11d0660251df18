// Package ui renders the provider CLI's terminal output and gathers its
// input. The UI interface is served by two implementations: TerminalUI for
// real sessions and RecordingUI for tests, which captures output and plays
// back scripted answers.
package ui

import (
	"encoding/json"
	"io"
)

// UI is the full terminal surface a command needs: leveled output, two
// tabular layouts, a spinner for slow calls, prompts and nesting.
//
// Nesting works through Indent: it returns a child UI one level deeper that
// shares the parent's writer and input stream, so prompts issued from a
// nested scope still consume answers in order.
type UI interface {
	// Style renders t with the color of its severity. Implementations
	// without color support return the text unchanged, which keeps styled
	// fragments safe to embed in Info lines.
	Style(t StyledText) string

	// Info prints a plain status line.
	Info(format string, args ...any)

	// Success prints a positive outcome, green on terminals.
	Success(format string, args ...any)

	// Warn prints a non-fatal warning, yellow on terminals.
	Warn(format string, args ...any)

	// Error prints a failure, red on terminals. The caller keeps control;
	// nothing exits.
	Error(format string, args ...any)

	// Section prints a separator line built around title, for example
	// "===== Wallet state =====".
	Section(title string)

	// KeyValue prints label/value rows with every value aligned to the
	// column after the longest label. Meant for short metadata blocks such
	// as the wallet state card.
	KeyValue(rows [][2]string)

	// Table prints a bordered table. An empty headers slice drops the
	// header row and its separator.
	Table(headers []string, rows [][]string)

	// Spinner starts an animated spinner labelled msg and returns the
	// function that stops it:
	//
	//	stop := u.Spinner("Dialing the wallet...")
	//	defer stop()
	//
	// Where animation makes no sense (piped output, RecordingUI) the
	// message is recorded once and stop does nothing.
	Spinner(msg string) func()

	// Interpret prints the outcome of the user's last input, indented
	// under the prompt line. The repl echoes call results through it.
	Interpret(value string)

	// Ask prints a "> " prompt and reads one line, repeating until
	// validate accepts it. A nil validate accepts anything. Any label
	// text above the prompt is the caller's to print first.
	Ask(validate func(string) error) string

	// Confirm asks prompt as a yes/no question, showing [Y/n] or [y/N]
	// depending on defaultYes, and returns the answer. An empty reply
	// picks the default.
	Confirm(prompt string, defaultYes bool) bool

	// Indent returns a child UI one indentation level deeper.
	Indent() UI

	// Writer exposes the output as an io.Writer that applies the current
	// indentation to each line, for handing to helpers like json.Indent.
	Writer() io.Writer
}

// StyledText is a string tagged with a severity. It exists so data can be
// built once and rendered differently per sink: UI.Style colors it for
// terminals, while JSON marshalling emits the bare text with no ANSI codes.
type StyledText struct {
	Text     string
	Severity Severity
}

// MarshalJSON emits only the text, as a JSON string.
func (s StyledText) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Text)
}

// Severity selects the color a piece of text renders with.
type Severity uint8

const (
	SeverityInfo    Severity = iota // plain
	SeveritySuccess                 // green, connected / positive
	SeverityWarn                    // yellow, needs attention
	SeverityError                   // red, disconnected / failed
)
