package store

// ComplianceRecord is the persisted shape of a resource's last reconciliation.
// Attribute names are the storage contract shared with downstream consumers.
type ComplianceRecord struct {
	ResourceArn      string `dynamodbav:"resourceArn" json:"resourceArn"`
	ResourceID       string `dynamodbav:"resourceId" json:"resourceId"`
	AccountID        string `dynamodbav:"accountId" json:"accountId"`
	AccountName      string `dynamodbav:"accountName" json:"accountName"`
	PrimaryContact   string `dynamodbav:"primaryContact" json:"primaryContact"`
	SecondaryContact string `dynamodbav:"secondaryContact" json:"secondaryContact"`
	ComplianceStatus string `dynamodbav:"complianceStatus" json:"complianceStatus"`
	FindingID        string `dynamodbav:"findingId" json:"findingId"`
	Expiry           int64  `dynamodbav:"expiry" json:"expiry"`
}

// QueryStats mirrors the count bookkeeping reported by the store for a query.
type QueryStats struct {
	Count        int32
	ScannedCount int32
}
