package domain

import "strings"

// InvocationPayload is the per-account fan-out message. A payload without
// AccountID is an orchestration-level invocation.
type InvocationPayload struct {
	AccountID   string `json:"accountId"`
	AccountName string `json:"accountName"`
}

// AccountContext identifies where a pass runs and where its findings land.
type AccountContext struct {
	ID        string
	Name      string
	Region    string
	Partition string
}

// ParseAccountRef reads "id" or "id=name".
func ParseAccountRef(ref string) InvocationPayload {
	id, name, _ := strings.Cut(ref, "=")
	return InvocationPayload{
		AccountID:   strings.TrimSpace(id),
		AccountName: strings.TrimSpace(name),
	}
}
