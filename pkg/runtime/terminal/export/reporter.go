package export

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/de-tools/compliance-atlas/pkg/models/api"
)

type TableConfig struct {
	AccountWidth  int
	RegionWidth   int
	CountWidth    int
	VerdictsWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		AccountWidth:  32,
		RegionWidth:   14,
		CountWidth:    9,
		VerdictsWidth: 40,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func formatVerdicts(s api.AuditSummary) string {
	if s.Skipped {
		return "skipped"
	}
	keys := make([]string, 0, len(s.Verdicts))
	for k := range s.Verdicts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, s.Verdicts[k]))
	}
	return strings.Join(parts, " ")
}

// Handle writes the summary of one run as a table, one row per account pass.
func (c *Reporter) Handle(run *api.AuditRun) error {
	cfg := c.config
	cols := []string{"Resources", "New", "Updated", "Archived", "Export err", "Write err"}

	funcMap := template.FuncMap{
		"header": func() string {
			var b strings.Builder
			fmt.Fprintf(&b, "| %-*s | %-*s |", cfg.AccountWidth, "Account", cfg.RegionWidth, "Region")
			for _, col := range cols {
				fmt.Fprintf(&b, " %-*s |", cfg.CountWidth, col)
			}
			fmt.Fprintf(&b, " %-*s |", cfg.VerdictsWidth, "Verdicts")
			return b.String()
		},
		"formatRow": func(s api.AuditSummary) string {
			var b strings.Builder
			account := fmt.Sprintf("%s/%s", s.AccountName, s.AccountID)
			fmt.Fprintf(&b, "| %-*s | %-*s |", cfg.AccountWidth, account, cfg.RegionWidth, s.Region)
			for _, n := range []int{s.Resources, s.Created, s.Updated, s.Archived, s.ExportFailures, s.PersistFailures} {
				fmt.Fprintf(&b, " %-*d |", cfg.CountWidth, n)
			}
			fmt.Fprintf(&b, " %-*s |", cfg.VerdictsWidth, formatVerdicts(s))
			return b.String()
		},
		"separator": func() string {
			var b strings.Builder
			fmt.Fprintf(&b, "+%s+%s+", strings.Repeat("-", cfg.AccountWidth+2), strings.Repeat("-", cfg.RegionWidth+2))
			for range cols {
				fmt.Fprintf(&b, "%s+", strings.Repeat("-", cfg.CountWidth+2))
			}
			fmt.Fprintf(&b, "%s+", strings.Repeat("-", cfg.VerdictsWidth+2))
			return b.String()
		},
	}

	tmpl := `
EMR bootstrap compliance audit
Run: {{.StartedAt.Format "2006-01-02 15:04:05"}} to {{.FinishedAt.Format "2006-01-02 15:04:05"}} UTC
Account passes: {{len .Accounts}}

{{separator}}
{{header}}
{{separator}}
{{range .Accounts}}{{formatRow .}}
{{end}}{{separator}}
`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, run)
}
