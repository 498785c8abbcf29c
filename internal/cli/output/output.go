// Package output renders command results for terminals and scripts.
//
// In auto mode a terminal gets styled text and anything else gets JSON, so
// piping a command into another tool yields machine-readable output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode selects how results are rendered.
type Mode string

// Output modes.
const (
	ModeAuto Mode = "auto"
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// ParseMode validates an output mode name. Empty means auto.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeText:
		return ModeText, nil
	case ModeJSON:
		return ModeJSON, nil
	default:
		return "", fmt.Errorf("unknown output mode %q (expected auto, text or json)", s)
	}
}

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Key     lipgloss.Style
	Muted   lipgloss.Style
}

func newStyles(re *lipgloss.Renderer) *Styles {
	return &Styles{
		Header:  re.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Success: re.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: re.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   re.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Key:     re.NewStyle().Bold(true),
		Muted:   re.NewStyle().Faint(true),
	}
}

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	re := lipgloss.NewRenderer(out)
	if !isTTY {
		re.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
		styles: newStyles(re),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// EffectiveMode resolves auto to text on a terminal and JSON otherwise.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeJSON
}

// Out returns the standard output writer.
func (r *Renderer) Out() io.Writer { return r.out }

// Styles returns the text-mode styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Println writes a line to standard output.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Header writes a heading. Level 1 is underlined.
func (r *Renderer) Header(level int, text string) {
	r.Println(r.styles.Header.Render(text))
	if level == 1 {
		r.Println(r.styles.Muted.Render(strings.Repeat("─", lipgloss.Width(text))))
	}
}

// KeyValue writes an aligned "key: value" line.
func (r *Renderer) KeyValue(key string, value any) {
	r.Println(fmt.Sprintf("  %s %v", r.styles.Key.Render(fmt.Sprintf("%-18s", key+":")), value))
}

// Success writes a success line to standard output.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render(msg))
}

// Warning writes a warning line to standard error.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("warning: "+msg))
}

// Error writes an error line to standard error.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("error: "+msg))
}

// Table writes rows as a light box-drawn table.
func (r *Renderer) Table(header table.Row, rows []table.Row) {
	if len(rows) == 0 {
		r.Println(r.styles.Muted.Render("(none)"))
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
