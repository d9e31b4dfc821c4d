package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapkv/internal/join"
)

// Renderer writes messages and tables in the configured mode. It implements
// join.Sink: Header and Row buffer the table, Footer writes it out.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	styles Styles

	header []string
	rows   [][]string
}

var _ join.Sink = (*Renderer)(nil)

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return NewRendererWithTTY(out, errOut, isTTY, mode)
}

// NewRendererWithTTY creates a renderer with an explicit TTY state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	r := &Renderer{out: out, errOut: errOut, mode: mode, isTTY: isTTY}
	r.styles = newStyles(out, r.EffectiveMode() == ModeText && isTTY)
	return r
}

// EffectiveMode resolves auto to text or markdown.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Writer returns the standard output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the error output writer.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// Styles returns the active styles; they render plain outside a text terminal.
func (r *Renderer) Styles() Styles { return r.styles }

// Println writes a line to standard output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to standard output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Info writes an informational line. Structured modes send it to the error
// writer so the data stream stays parseable.
func (r *Renderer) Info(msg string) {
	w := r.out
	if r.EffectiveMode().Structured() {
		w = r.errOut
	}
	_, _ = fmt.Fprintln(w, r.styles.Info.Render(msg))
}

// Success writes a confirmation line.
func (r *Renderer) Success(msg string) {
	w := r.out
	if r.EffectiveMode().Structured() {
		w = r.errOut
	}
	_, _ = fmt.Fprintln(w, r.styles.Success.Render(msg))
}

// Error writes an error line to the error writer.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("ERROR: "+msg))
}

// Muted returns s in the muted style.
func (r *Renderer) Muted(s string) string { return r.styles.Muted.Render(s) }

// Header starts a table.
func (r *Renderer) Header(columns []string) error {
	r.header = append([]string(nil), columns...)
	r.rows = r.rows[:0]
	return nil
}

// Row buffers one table row.
func (r *Renderer) Row(values []string) error {
	r.rows = append(r.rows, append([]string(nil), values...))
	return nil
}

// Footer writes the buffered table and its summary.
func (r *Renderer) Footer(s join.Summary) error {
	defer func() {
		r.header, r.rows = nil, nil
	}()
	return r.Table(r.header, r.rows, s.Rows, s.Elapsed)
}

// Table writes a complete table with a row-count footer.
func (r *Renderer) Table(header []string, rows [][]string, count int, elapsed time.Duration) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(newDocument(header, rows, count, elapsed))
	case ModeYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(newDocument(header, rows, count, elapsed)); err != nil {
			return err
		}
		return enc.Close()
	case ModeCSV:
		r.prettyTable(header, rows).RenderCSV()
		return nil
	case ModeMarkdown:
		r.prettyTable(header, rows).RenderMarkdown()
		r.Println()
		r.Println(FormatFooter(count, elapsed))
		return nil
	default:
		r.prettyTable(header, rows).Render()
		r.Println(r.Muted(FormatFooter(count, elapsed)))
		return nil
	}
}

func (r *Renderer) prettyTable(header []string, rows [][]string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)

	// column names are case-sensitive, keep them as written
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	t.SetStyle(style)

	head := make(table.Row, len(header))
	for i, h := range header {
		head[i] = h
	}
	t.AppendHeader(head)
	for _, values := range rows {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = v
		}
		t.AppendRow(row)
	}
	return t
}

// FormatFooter is the row-count line printed under a table.
func FormatFooter(rows int, elapsed time.Duration) string {
	return fmt.Sprintf("%d row(s) in %.4f seconds", rows, elapsed.Seconds())
}

// document is the JSON and YAML shape of a table.
type document struct {
	Columns        []string   `json:"columns" yaml:"columns"`
	Rows           [][]string `json:"rows" yaml:"rows"`
	Count          int        `json:"count" yaml:"count"`
	ElapsedSeconds float64    `json:"elapsed_seconds" yaml:"elapsed_seconds"`
}

func newDocument(header []string, rows [][]string, count int, elapsed time.Duration) document {
	if rows == nil {
		rows = [][]string{}
	}
	return document{Columns: header, Rows: rows, Count: count, ElapsedSeconds: elapsed.Seconds()}
}
