package ui

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Entry is one recorded UI call: the method name and the rendered value it
// received. Tests assert against these instead of parsing terminal output.
type Entry struct {
	Method string
	Value  string
}

// tape is the state a RecordingUI shares with every child built by Indent:
// one call log, one scripted input queue, one output buffer. Sharing keeps
// prompt answers in script order no matter which nesting level asks.
type tape struct {
	calls  []Entry
	script []string
	cursor int
	sink   bytes.Buffer
}

// RecordingUI implements UI for tests. Output methods append to a call log
// read back with Entries and HasMessage; Ask and Confirm are answered from
// the scripted inputs given to NewRecordingUI, in order. Running past the
// end of the script panics, as does a scripted answer that fails an Ask
// validator, because the script itself is wrong and a loud failure beats a
// hanging prompt.
type RecordingUI struct {
	tape  *tape
	level int
}

// NewRecordingUI builds a recording UI whose prompts will be answered by
// inputs, first to last.
func NewRecordingUI(inputs ...string) *RecordingUI {
	return &RecordingUI{tape: &tape{script: inputs}}
}

func (r *RecordingUI) record(method, value string) {
	r.tape.calls = append(r.tape.calls, Entry{Method: method, Value: value})
}

// take pops the next scripted input for caller, panicking when the script
// is exhausted.
func (r *RecordingUI) take(caller string) string {
	t := r.tape
	if t.cursor == len(t.script) {
		panic(fmt.Sprintf("RecordingUI: %s wants input but the script of %d is used up", caller, len(t.script)))
	}
	answer := t.script[t.cursor]
	t.cursor++
	return answer
}

// Style returns the bare text. Recorded values stay free of ANSI codes so
// assertions can match them literally.
func (r *RecordingUI) Style(t StyledText) string {
	return t.Text
}

func (r *RecordingUI) Info(format string, args ...any) {
	r.record("Info", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Success(format string, args ...any) {
	r.record("Success", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Warn(format string, args ...any) {
	r.record("Warn", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Error(format string, args ...any) {
	r.record("Error", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Section(title string) {
	r.record("Section", title)
}

func (r *RecordingUI) Interpret(value string) {
	r.record("Interpret", value)
}

// KeyValue records one "label: value" entry per row, leaving terminal
// alignment out of what tests see.
func (r *RecordingUI) KeyValue(rows [][2]string) {
	for _, row := range rows {
		r.record("KeyValue", row[0]+": "+row[1])
	}
}

// Table records each row as its cells joined with tabs, the header row
// first when present.
func (r *RecordingUI) Table(headers []string, rows [][]string) {
	if len(headers) > 0 {
		r.record("Table", strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		r.record("Table", strings.Join(row, "\t"))
	}
}

// Spinner records the message once; the returned stop does nothing.
func (r *RecordingUI) Spinner(msg string) func() {
	r.record("Spinner", msg)
	return func() {}
}

func (r *RecordingUI) Ask(validate func(string) error) string {
	answer := r.take("Ask")
	r.record("Ask", answer)
	if validate != nil {
		if err := validate(answer); err != nil {
			panic(fmt.Sprintf("RecordingUI: scripted answer %q rejected by Ask validator: %s", answer, err))
		}
	}
	return answer
}

// Confirm reads the next scripted input as a yes/no answer: "y" and "yes"
// mean true, the empty string means defaultYes, anything else means false.
func (r *RecordingUI) Confirm(prompt string, defaultYes bool) bool {
	r.record("Confirm", prompt)
	switch strings.ToLower(strings.TrimSpace(r.take("Confirm"))) {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	}
	return false
}

// Indent returns a child one level deeper on the same tape.
func (r *RecordingUI) Indent() UI {
	return &RecordingUI{tape: r.tape, level: r.level + 1}
}

// Writer collects raw writes in a buffer, unindented; read it back with
// Output.
func (r *RecordingUI) Writer() io.Writer {
	return &r.tape.sink
}

// Entries returns every recorded call in order.
func (r *RecordingUI) Entries() []Entry {
	return r.tape.calls
}

// HasMessage reports whether any recorded value contains substr, compared
// case-insensitively.
func (r *RecordingUI) HasMessage(substr string) bool {
	want := strings.ToLower(substr)
	for _, e := range r.tape.calls {
		if strings.Contains(strings.ToLower(e.Value), want) {
			return true
		}
	}
	return false
}

// Output returns everything written through Writer.
func (r *RecordingUI) Output() string {
	return r.tape.sink.String()
}
