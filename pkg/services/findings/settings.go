package findings

import "github.com/de-tools/compliance-atlas/pkg/models/domain"

// ExporterSettings holds the fixed metadata stamped on every finding.
type ExporterSettings struct {
	// RuleID identifies the compliance rule inside finding identifiers (default: org-EMR-2)
	RuleID string
	// RuleVersion is embedded in finding identifiers and product fields (default: 1.0)
	RuleVersion string
	// CompanyName prefixes custom product field keys (default: org)
	CompanyName string
	// ProductName is the generator reported to the sink, usually the function name
	ProductName string
	// FailedSeverity is the severity label used for FAILED verdicts (default: MEDIUM)
	FailedSeverity domain.SeverityLabel
	Title          string
	Description    string
	// FindingType is the single category string in the finding types list
	FindingType        string
	RecommendationText string
	RecommendationURL  string
}

func DefaultExporterSettings() ExporterSettings {
	return ExporterSettings{
		RuleID:             "org-EMR-2",
		RuleVersion:        "1.0",
		CompanyName:        "org",
		ProductName:        "emr-bootstrap-audit",
		FailedSeverity:     domain.SeverityMedium,
		Title:              "org EMR Uses Bootstrap Script",
		Description:        "Checks the EMR cluster to ensure it used the correct bootstrap hardening script",
		FindingType:        "Software and Configuration Checks/Vulnerabilities/CVE",
		RecommendationText: "See AWS instructions for using bootstrap scripts in EMR clusters.",
		RecommendationURL:  "https://docs.aws.amazon.com/emr/latest/ManagementGuide/emr-plan-bootstrap.html#bootstrapUses",
	}
}
