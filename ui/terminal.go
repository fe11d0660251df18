package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-runewidth"
	"github.com/openconfig/goyang/pkg/indent"
	"golang.org/x/term"
)

const (
	indentStep   = "  " // two spaces per nesting level
	sectionWidth = 50   // target width of Section separator lines
	promptMark   = "> "
	answerMark   = "→ "
)

// TerminalUI writes to stdout and reads from stdin. Color is enabled only
// when stdout is a real terminal, so piping the CLI into a file or another
// program yields clean text.
type TerminalUI struct {
	level int
	out   io.Writer
	in    *bufio.Reader
	au    aurora.Aurora
}

// NewTerminalUI builds the UI used by every interactive command.
func NewTerminalUI() *TerminalUI {
	return &TerminalUI{
		out: os.Stdout,
		in:  bufio.NewReader(os.Stdin),
		au:  aurora.NewAurora(term.IsTerminal(int(os.Stdout.Fd()))),
	}
}

func (u *TerminalUI) margin() string {
	return strings.Repeat(indentStep, u.level)
}

func (u *TerminalUI) emit(line string) {
	fmt.Fprintf(u.out, "%s%s\n", u.margin(), line)
}

// paint applies the severity's color. With color disabled the aurora
// wrappers are pass-throughs, so the same path serves both modes.
func (u *TerminalUI) paint(sev Severity, s string) string {
	switch sev {
	case SeveritySuccess:
		return u.au.Green(s).String()
	case SeverityWarn:
		return u.au.Yellow(s).String()
	case SeverityError:
		return u.au.Red(s).String()
	}
	return s
}

func (u *TerminalUI) Style(t StyledText) string {
	return u.paint(t.Severity, t.Text)
}

func (u *TerminalUI) Info(format string, args ...any) {
	u.emit(fmt.Sprintf(format, args...))
}

func (u *TerminalUI) Success(format string, args ...any) {
	u.emit(u.paint(SeveritySuccess, fmt.Sprintf(format, args...)))
}

func (u *TerminalUI) Warn(format string, args ...any) {
	u.emit(u.paint(SeverityWarn, fmt.Sprintf(format, args...)))
}

func (u *TerminalUI) Error(format string, args ...any) {
	u.emit(u.paint(SeverityError, fmt.Sprintf(format, args...)))
}

// Section prints the title centred in a line of "=" characters, with a
// blank line on each side.
func (u *TerminalUI) Section(title string) {
	label := " " + title + " "
	fill := sectionWidth - len(label)
	if fill < 6 {
		fill = 6
	}
	left := strings.Repeat("=", fill/2)
	right := strings.Repeat("=", fill-fill/2)
	fmt.Fprintf(u.out, "\n%s%s%s%s\n\n", u.margin(), left, label, right)
}

// Interpret echoes an outcome one level under the prompt, in cyan, so it
// reads as the answer to the line the user just typed.
func (u *TerminalUI) Interpret(value string) {
	u.emit(indentStep + answerMark + u.au.Cyan(value).String())
}

// Ask prompts with "> " and reads lines until validate accepts one. A nil
// validate accepts the first line as is.
func (u *TerminalUI) Ask(validate func(string) error) string {
	for {
		fmt.Fprintf(u.out, "%s%s", u.margin(), promptMark)
		raw, _ := u.in.ReadString('\n')
		answer := strings.TrimRight(raw, "\r\n")
		if validate == nil {
			return answer
		}
		if err := validate(answer); err != nil {
			u.Error("%s", err.Error())
			continue
		}
		return answer
	}
}

// Confirm asks a yes/no question. Empty input picks the default shown in
// the [Y/n] hint.
func (u *TerminalUI) Confirm(prompt string, defaultYes bool) bool {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	u.Info("%s %s", prompt, hint)
	answer := u.Ask(func(s string) error {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "y", "yes", "n", "no":
			return nil
		}
		return fmt.Errorf("please enter y or n")
	})
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	}
	return false
}

// KeyValue prints label/value rows with the values aligned two spaces past
// the longest label.
func (u *TerminalUI) KeyValue(rows [][2]string) {
	widest := 0
	for _, row := range rows {
		if n := len(row[0]); n > widest {
			widest = n
		}
	}
	for _, row := range rows {
		u.emit(fmt.Sprintf("%-*s  %s", widest, row[0], row[1]))
	}
}

// visibleWidth measures a cell as the terminal shows it: ANSI escapes are
// stripped first, then the rest is counted in display cells so wide runes
// keep columns aligned.
func visibleWidth(s string) int {
	return runewidth.StringWidth(ansi.Strip(s))
}

// Table draws a box-drawing bordered table. Cells may carry ANSI color from
// Style; widths are computed on the visible text. An empty headers slice
// omits the header row and its separator rule.
func (u *TerminalUI) Table(headers []string, rows [][]string) {
	cols := len(headers)
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return
	}

	widths := make([]int, cols)
	measure := func(cells []string) {
		for i, cell := range cells {
			if w := visibleWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}

	frame := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	rule := func(left, joint, right string) string {
		segments := make([]string, cols)
		for i := range segments {
			segments[i] = strings.Repeat("─", widths[i]+2)
		}
		return frame.Render(left + strings.Join(segments, joint) + right)
	}
	bar := frame.Render("│")
	line := func(cells []string) string {
		var b strings.Builder
		b.WriteString(bar)
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(" ")
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-visibleWidth(cell)+1))
			b.WriteString(bar)
		}
		return b.String()
	}

	u.emit(rule("┌", "┬", "┐"))
	if len(headers) > 0 {
		u.emit(line(headers))
		u.emit(rule("├", "┼", "┤"))
	}
	for _, row := range rows {
		u.emit(line(row))
	}
	u.emit(rule("└", "┴", "┘"))
}

// Spinner animates while a slow call runs and returns its stop function.
// Without a terminal the message is printed once and stop does nothing.
func (u *TerminalUI) Spinner(msg string) func() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		u.Info("%s", msg)
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 80*time.Millisecond, spinner.WithWriter(u.out))
	s.Suffix = " " + msg
	s.Start()
	return func() {
		s.Stop()
		// Stop clears its line with a bare \r, so start a fresh line for
		// whatever prints next.
		fmt.Fprintln(u.out)
	}
}

// Indent returns a child one level deeper sharing the parent's streams, so
// output ordering and input sequencing hold across nested scopes.
func (u *TerminalUI) Indent() UI {
	return &TerminalUI{level: u.level + 1, out: u.out, in: u.in, au: u.au}
}

// Writer adapts the UI into an io.Writer that prefixes each line with the
// current indentation, for helpers such as json.Indent.
func (u *TerminalUI) Writer() io.Writer {
	if u.level == 0 {
		return u.out
	}
	return indent.NewWriter(u.out, u.margin())
}
