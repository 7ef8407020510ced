package domain

import "fmt"

type ProfileType string

const (
	ProfileTypeDefault ProfileType = "default"
	ProfileTypeNamed   ProfileType = "profile"
	ProfileTypeSSO     ProfileType = "sso"
)

// ConfigProfile is an entry of the AWS shared config file.
type ConfigProfile struct {
	Name   string
	Type   ProfileType
	Region string
}

func (c ConfigProfile) String() string {
	return fmt.Sprintf("%s:%s", c.Type, c.Name)
}
