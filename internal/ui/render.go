// Package ui renders gcff output for humans and machines.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/torfstack/gcff/internal/db"
	"github.com/torfstack/gcff/internal/deploy"
)

var (
	header = lipgloss.NewStyle().Bold(true)
	added  = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	change = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	remove = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	item   = lipgloss.NewStyle().Italic(true).PaddingLeft(2)
	hint   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	ok     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("34"))
)

// Reporter prints plans, scan results and progress.
type Reporter struct {
	out io.Writer

	mu       sync.Mutex
	name     string
	total    int
	advanced int
}

var _ deploy.Reporter = (*Reporter)(nil)

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

func (r *Reporter) Plan(plan deploy.Plan) {
	if plan.Empty() {
		r.printf("%s\n", hint.Render("No file changes for "+plan.Target+", only the manifest is written"))
		return
	}
	r.section(added, "add", plan.Added)
	r.section(change, "change", plan.Changed)
	r.section(remove, "remove", plan.Removed)
}

func (r *Reporter) section(style lipgloss.Style, verb string, files []string) {
	if len(files) == 0 {
		return
	}
	r.printf("%s\n", header.Render(fmt.Sprintf("This change will %s %s:", style.Render(verb), plural(len(files), "file"))))
	for _, f := range files {
		r.printf("%s\n", item.Render(f))
	}
}

func (r *Reporter) Scanned(report deploy.PruneReport) {
	r.printf("%s %d, %s %d, %s %d, %s %d\n",
		ok.Render("verified"), len(report.Verified),
		change.Render("missing"), len(report.Missing),
		remove.Render("damaged"), len(report.Damaged),
		hint.Render("extra"), len(report.Extra),
	)
	for _, f := range report.Missing {
		r.printf("%s\n", item.Render("missing: "+f))
	}
	for _, f := range report.Damaged {
		r.printf("%s\n", item.Render("damaged: "+f))
	}
	if len(report.ToRemove) == 0 {
		r.printf("%s\n", ok.Render("Everything is up-to-date"))
	}
}

func (r *Reporter) Start(name string, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name, r.total, r.advanced = name, total, 0
}

func (r *Reporter) Advance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advanced++
}

func (r *Reporter) Done() {
	r.mu.Lock()
	name, advanced, total := r.name, r.advanced, r.total
	r.mu.Unlock()
	r.printf("%s %s\n", header.Render(fmt.Sprintf("%s %d/%d", capitalize(name), advanced, total)), ok.Render("Done!"))
}

func (r *Reporter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func Modules(w io.Writer, functionName string, modules []string) {
	if len(modules) == 0 {
		_, _ = fmt.Fprintln(w, hint.Render("No modules deployed to "+functionName))
		return
	}
	for _, m := range modules {
		_, _ = fmt.Fprintln(w, deploy.Identity{Function: functionName, Destination: m})
	}
}

func Dependencies(w io.Writer, dependencies map[string]string) {
	for _, name := range slices.Sorted(maps.Keys(dependencies)) {
		_, _ = fmt.Fprintf(w, "%s %s\n", name, hint.Render(dependencies[name]))
	}
}

func DependencyReport(w io.Writer, report *deploy.DependencyReport) {
	for _, c := range report.Conflicts {
		_, _ = fmt.Fprintln(w, remove.Render("conflict "+c.String()))
	}
	for _, name := range slices.Sorted(maps.Keys(report.Missing)) {
		_, _ = fmt.Fprintf(w, "%s %s %s\n", added.Render("missing"), name, report.Missing[name])
	}
	for _, name := range slices.Sorted(maps.Keys(report.Extra)) {
		_, _ = fmt.Fprintf(w, "%s %s %s\n", remove.Render("extra"), name, report.Extra[name])
	}
	for _, name := range slices.Sorted(maps.Keys(report.Updated)) {
		u := report.Updated[name]
		_, _ = fmt.Fprintf(w, "%s %s %s -> %s\n", change.Render("updated"), name, u.From, u.To)
	}
	if report.UpToDate {
		_, _ = fmt.Fprintln(w, ok.Render("Dependencies are up-to-date"))
	}
}

func History(w io.Writer, records []db.Record) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, hint.Render("No changes recorded yet"))
		return
	}
	for _, r := range records {
		target := r.Function + "/" + r.Destination
		_, _ = fmt.Fprintf(w, "%s %-6s %-30s puts=%d deletes=%d failed=%d\n",
			hint.Render(r.CreatedAt.Local().Format("2006-01-02 15:04:05")),
			r.Kind, target, r.Puts, r.Deletes, r.FailedDeletes)
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
