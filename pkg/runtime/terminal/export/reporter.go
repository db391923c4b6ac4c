package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/shahul3595/SFCAudit/pkg/models/domain"
)

type TableConfig struct {
	EntityWidth int
	RuleWidth   int
	DetailWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		EntityWidth: 32,
		RuleWidth:   12,
		DetailWidth: 96,
	}
}

// Reporter renders an audit run as plain text for terminal use.
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

func (r *Reporter) Handle(run *domain.RunResult) error {
	funcMap := template.FuncMap{
		"formatRow": func(entity, rule, detail string) string {
			return fmt.Sprintf("| %-*s | %-*s | %-*s |",
				r.config.EntityWidth, truncate(entity, r.config.EntityWidth),
				r.config.RuleWidth, truncate(rule, r.config.RuleWidth),
				r.config.DetailWidth, truncate(detail, r.config.DetailWidth))
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+",
				strings.Repeat("-", r.config.EntityWidth+2),
				strings.Repeat("-", r.config.RuleWidth+2),
				strings.Repeat("-", r.config.DetailWidth+2))
		},
		"severityName": func(s domain.Severity) string { return s.String() },
	}

	tmpl := `
Audit run: {{.StartedAt.Format "2006-01-02 15:04:05"}}

Entities: {{.EntityCount}}
Rules attempted: {{.RulesAttempted}}
Rules with findings: {{.RulesWithFindings}}
Rules skipped: {{len .Skipped}}
Total findings: {{len .Findings}}
{{range $sev, $n := .BySeverity}}  {{severityName $sev}}: {{$n}}
{{end}}
{{- if .Skipped}}
Skipped rules:
{{range .Skipped}}  {{.RuleID}}: {{.Reason}}{{if .Detail}} ({{.Detail}}){{end}}
{{end}}{{end}}
{{- if .Findings}}
{{separator}}
{{formatRow "Entity" "Rule" "Detail"}}
{{separator}}
{{range .Findings}}{{formatRow .EntityName .RuleID .Detail}}
{{end}}{{separator}}
{{end}}
`

	t, err := template.New("run").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(r.writer, run)
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}
