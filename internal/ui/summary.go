package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vvka-141/dwhetl/internal/catalog"
	"github.com/vvka-141/dwhetl/internal/services"
	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// Renderer formats run output. With styling off it produces plain text
// suitable for logs and pipes.
type Renderer struct {
	styled bool
}

// NewRenderer creates a Renderer. Pass UseStyles(os.Stderr) for terminal output.
func NewRenderer(styled bool) *Renderer {
	return &Renderer{styled: styled}
}

func (r *Renderer) paint(style lipgloss.Style, s string) string {
	if !r.styled {
		return s
	}
	return style.Render(s)
}

func (r *Renderer) box(style lipgloss.Style, body string) string {
	if !r.styled {
		return body + "\n"
	}
	return style.Render(body) + "\n"
}

// Summary describes the outcome of a run. report may be nil when the run
// failed before any statement was sent.
func (r *Renderer) Summary(report *dwhetl.RunReport, err error) string {
	if report == nil {
		if err == nil {
			return ""
		}
		body := r.paint(ErrorStyle, SymbolCross+" Run failed before any statement was sent") + "\n" +
			r.paint(LabelStyle, "cause: ") + err.Error()
		return r.box(FailedBoxStyle, body)
	}

	var b strings.Builder
	state := report.State.String()
	if report.State == dwhetl.StateCompleted {
		state = r.paint(SuccessStyle, SymbolCheck+" "+state)
	} else {
		state = r.paint(ErrorStyle, SymbolCross+" "+state)
	}

	fmt.Fprintf(&b, "%s %s  %s\n", r.paint(TitleStyle, "Run"), shortID(report.RunID.String()), state)
	fmt.Fprintf(&b, "%s %d sent, %d succeeded, %s\n",
		r.paint(LabelStyle, "statements:"), report.Executed(), report.Succeeded(),
		report.Duration().Round(time.Millisecond))

	for _, c := range dwhetl.Categories {
		if n := report.CountByCategory(c); n > 0 {
			fmt.Fprintf(&b, "  %s %-7s %d\n", SymbolBullet, c, n)
		}
	}

	if report.Failed != nil {
		f := report.Failed
		fmt.Fprintf(&b, "%s %s statement %d (%s): %v\n", r.paint(LabelStyle, "failed at:"), f.Category, f.Index, f.Name, f.Kind)
		fmt.Fprintf(&b, "%s %v", r.paint(LabelStyle, "cause:"), f.Err)
		if hint := loadErrorHint(f); hint != "" {
			fmt.Fprintf(&b, "\n%s", r.paint(WarningStyle, hint))
		}
	} else if err != nil {
		fmt.Fprintf(&b, "%s %v", r.paint(LabelStyle, "cause:"), err)
	}

	style := BoxStyle
	if report.State != dwhetl.StateCompleted {
		style = FailedBoxStyle
	}
	return r.box(style, strings.TrimRight(b.String(), "\n"))
}

// Plan lists the rendered statements in execution order. SQL text is shown
// in full when showSQL is set, otherwise as a one-line preview.
func (r *Renderer) Plan(stages []catalog.RenderedStage, fingerprint string, showSQL bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.paint(TitleStyle, "Execution plan"), r.paint(MutedStyle, "(catalog "+shortFingerprint(fingerprint)+")"))

	n := 0
	for _, stage := range stages {
		fmt.Fprintf(&b, "\n%s\n", r.paint(LabelStyle, fmt.Sprintf("[%s] %d statement(s)", stage.Category, len(stage.Statements))))
		for _, stmt := range stage.Statements {
			n++
			fmt.Fprintf(&b, "%3d. %s %d %s %s\n", n, stmt.Category, stmt.OrderIndex, SymbolArrowRight, stmt.Name)
			if showSQL {
				for _, line := range strings.Split(strings.TrimSpace(stmt.SQL), "\n") {
					fmt.Fprintf(&b, "       %s\n", r.paint(MutedStyle, line))
				}
			} else {
				fmt.Fprintf(&b, "       %s\n", r.paint(MutedStyle, Preview(stmt.SQL)))
			}
		}
	}

	fmt.Fprintf(&b, "\n%d statement(s) total\n", n)
	return b.String()
}

// Status lists the row counts of the managed tables.
func (r *Renderer) Status(dbName string, statuses []services.TableStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.paint(TitleStyle, "Tables in"), dbName)
	for _, s := range statuses {
		if !s.Exists {
			fmt.Fprintf(&b, "  %-16s %s\n", s.Table, r.paint(WarningStyle, "missing"))
			continue
		}
		fmt.Fprintf(&b, "  %-16s %d\n", s.Table, s.Rows)
	}
	return b.String()
}

// Preview collapses whitespace and truncates SQL for one-line display.
func Preview(sql string) string {
	s := strings.Join(strings.Fields(sql), " ")
	if len(s) > dwhetl.MaxErrorPreviewLength {
		return s[:dwhetl.MaxErrorPreviewLength] + "..."
	}
	return s
}

func loadErrorHint(f *dwhetl.StatementError) string {
	if !errors.Is(f.Kind, dwhetl.ErrLoad) {
		return ""
	}
	return "hint: query stl_load_errors for the rejected rows"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
