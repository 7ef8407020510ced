package export

import (
	"fmt"
	"text/template"

	"github.com/de-tools/compliance-atlas/pkg/models/api"
)

type recordsView struct {
	AccountID string
	Records   []api.ComplianceRecord
}

// HandleRecords lists the persisted state of one account.
func (c *Reporter) HandleRecords(accountID string, records []api.ComplianceRecord) error {
	tmpl := `
Compliance records for {{.AccountID}} ({{len .Records}})
{{range .Records}}
- {{.ResourceID}}: {{.ComplianceStatus}}
  Resource: {{.ResourceArn}}
  Finding:  {{.FindingID}}
  Contacts: {{.PrimaryContact}} / {{.SecondaryContact}}
  Expires:  {{.ExpiresAt.Format "2006-01-02"}}
{{end}}`

	t, err := template.New("records").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, recordsView{AccountID: accountID, Records: records})
}
