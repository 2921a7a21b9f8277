package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ansi is an SGR escape sequence.
type ansi string

const (
	reset    ansi = "\033[0m"
	fgRed    ansi = "\033[31m"
	fgYellow ansi = "\033[33m"
	fgBlue   ansi = "\033[34m"
	fgCyan   ansi = "\033[36m"
	fgGray   ansi = "\033[90m"
	fontBold ansi = "\033[1m"
)

// detailCol is the wrap width for Detail text.
const detailCol = 70

// colorEnabled controls whether ANSI colors are used. NO_COLOR turns it off
// at startup.
var colorEnabled = os.Getenv("NO_COLOR") == ""

// DisableColors disables ANSI color output.
func DisableColors() { colorEnabled = false }

// EnableColors enables ANSI color output.
func EnableColors() { colorEnabled = true }

// ColorsEnabled reports whether ANSI color output is on.
func ColorsEnabled() bool { return colorEnabled }

func paint(text string, codes ...ansi) string {
	if !colorEnabled || len(codes) == 0 {
		return text
	}
	var b strings.Builder
	for _, c := range codes {
		b.WriteString(string(c))
	}
	b.WriteString(text)
	b.WriteString(string(reset))
	return b.String()
}

func red(text string) string { return paint(text, fgRed) }

// Format renders the error for a terminal: a header, then optional
// subject, detail, hint, example and documentation link blocks.
func (e *Error) Format() string {
	var b strings.Builder

	header := "ERROR: "
	if e.Code != "" {
		header = "ERROR " + e.Code + ": "
	}
	fmt.Fprintf(&b, "\n%s%s\n\n", paint(header, fgRed, fontBold), e.Message)

	block := func(lines ...string) {
		for _, l := range lines {
			b.WriteString("  ")
			b.WriteString(l)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	if e.Subject != "" {
		block(paint(e.Subject, fgCyan))
	}
	if lines := wrapText(e.Detail, detailCol); len(lines) > 0 {
		block(lines...)
	}
	if e.Suggestion != "" {
		block(paint("Hint: ", fgYellow) + e.Suggestion)
	}
	if e.Example != "" {
		lines := []string{paint("Example:", fgCyan)}
		for _, l := range strings.Split(e.Example, "\n") {
			lines = append(lines, "  "+l)
		}
		block(lines...)
	}
	if e.DocURL != "" {
		fmt.Fprintf(&b, "  %s%s\n", paint("Learn more: ", fgGray), paint(e.DocURL, fgBlue))
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s%v\n", paint("Cause: ", fgGray), e.Wrapped)
	}
	return b.String()
}

// FormatCompact returns "CODE: message (subject)".
func (e *Error) FormatCompact() string {
	s := e.Message
	if e.Code != "" {
		s = e.Code + ": " + s
	}
	if e.Subject != "" {
		s += " (" + e.Subject + ")"
	}
	return s
}

type jsonError struct {
	Code       string   `json:"code,omitempty"`
	Category   Category `json:"category"`
	Message    string   `json:"message"`
	Detail     string   `json:"detail,omitempty"`
	Subject    string   `json:"subject,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
	DocURL     string   `json:"docUrl,omitempty"`
	Cause      string   `json:"cause,omitempty"`
}

// FormatJSON returns the error as a single-line JSON object.
func (e *Error) FormatJSON() string {
	v := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Subject:    e.Subject,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Wrapped != nil {
		v.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Message)
	}
	return string(data)
}

// wrapText breaks text into lines of at most width bytes at word
// boundaries. A single word longer than width gets its own line.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	lines := []string{words[0]}
	for _, w := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(w) > width {
			lines = append(lines, w)
			continue
		}
		*last += " " + w
	}
	return lines
}

// PrintError prints err to stderr, in full form when it carries an *Error.
func PrintError(err error) {
	Fprint(os.Stderr, err)
}

// Fprint writes err to w, in full form when it carries an *Error.
func Fprint(w io.Writer, err error) {
	var de *Error
	if stderrors.As(err, &de) {
		fmt.Fprint(w, de.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %v\n\n", paint("ERROR:", fgRed, fontBold), err)
}
