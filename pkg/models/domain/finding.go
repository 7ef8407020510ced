package domain

type RecordState string

const (
	RecordStateActive   RecordState = "ACTIVE"
	RecordStateArchived RecordState = "ARCHIVED"
)

type WorkflowStatus string

const (
	WorkflowStatusNew      WorkflowStatus = "NEW"
	WorkflowStatusResolved WorkflowStatus = "RESOLVED"
)

type SeverityLabel string

const (
	SeverityInformational SeverityLabel = "INFORMATIONAL"
	SeverityLow           SeverityLabel = "LOW"
	SeverityMedium        SeverityLabel = "MEDIUM"
	SeverityHigh          SeverityLabel = "HIGH"
	SeverityCritical      SeverityLabel = "CRITICAL"
)

func (s SeverityLabel) Valid() bool {
	switch s {
	case SeverityInformational, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Finding is the canonical document submitted to the findings sink. It is
// never mutated after rendering; updates are new documents with the same ID.
type Finding struct {
	SchemaVersion string            `json:"schemaVersion"`
	ID            string            `json:"id"`
	ProductArn    string            `json:"productArn"`
	GeneratorID   string            `json:"generatorId"`
	AccountID     string            `json:"accountId"`
	Compliance    FindingCompliance `json:"compliance"`
	CreatedAt     string            `json:"createdAt"`
	UpdatedAt     string            `json:"updatedAt"`
	Severity      FindingSeverity   `json:"severity"`
	Types         []string          `json:"types"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Remediation   Remediation       `json:"remediation"`
	ProductFields map[string]string `json:"productFields"`
	Resources     []FindingResource `json:"resources"`
	Workflow      FindingWorkflow   `json:"workflow"`
	RecordState   RecordState       `json:"recordState"`
}

type FindingCompliance struct {
	Status Verdict `json:"status"`
}

type FindingSeverity struct {
	Label    SeverityLabel `json:"label"`
	Original string        `json:"original"`
}

type Remediation struct {
	Recommendation Recommendation `json:"recommendation"`
}

type Recommendation struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type FindingResource struct {
	Type      string                       `json:"type"`
	ID        string                       `json:"id"`
	Partition string                       `json:"partition"`
	Region    string                       `json:"region"`
	Tags      map[string]string            `json:"tags,omitempty"`
	Details   map[string]map[string]string `json:"details"`
}

type FindingWorkflow struct {
	Status WorkflowStatus `json:"status"`
}

// ImportFailure describes one document the sink rejected inside a batch.
type ImportFailure struct {
	FindingID    string
	ErrorCode    string
	ErrorMessage string
}

type ImportResult struct {
	SuccessCount int
	Failures     []ImportFailure
}
