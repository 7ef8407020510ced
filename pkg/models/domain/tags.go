package domain

const (
	TagPrimaryContact   = "PrimaryTechPOC"
	TagSecondaryContact = "SecondaryTechPOC"

	// UnknownContact is recorded when a contact tag is absent.
	UnknownContact = "unknown"
)

// Tags maps resource tag keys to values. Source order is irrelevant.
type Tags map[string]string

type Tag struct {
	Key   string
	Value string
}

// NewTags builds the mapping in a single pass. Later duplicates win.
func NewTags(tags []Tag) Tags {
	m := make(Tags, len(tags))
	for _, t := range tags {
		if t.Key == "" {
			continue
		}
		m[t.Key] = t.Value
	}
	return m
}

func (t Tags) Get(key, def string) string {
	if v, ok := t[key]; ok {
		return v
	}
	return def
}

func (t Tags) Contacts() Contacts {
	return Contacts{
		Primary:   t.Get(TagPrimaryContact, UnknownContact),
		Secondary: t.Get(TagSecondaryContact, UnknownContact),
	}
}
