package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

// Registry lists the profiles of an AWS shared config file.
type Registry interface {
	GetProfiles(ctx context.Context) ([]domain.ConfigProfile, error)
	GetProfile(ctx context.Context, name string) (domain.ConfigProfile, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

// DefaultAWSConfigPath honours AWS_CONFIG_FILE like the SDK does.
func DefaultAWSConfigPath() string {
	if p := os.Getenv("AWS_CONFIG_FILE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".aws", "config")
	}
	return filepath.Join(home, ".aws", "config")
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]domain.ConfigProfile, error) {
	var profiles []domain.ConfigProfile
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) == 0 {
			continue
		}
		if profile, ok := parseProfile(section); ok {
			profiles = append(profiles, profile)
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetProfile(ctx context.Context, name string) (domain.ConfigProfile, error) {
	profiles, err := cr.GetProfiles(ctx)
	if err != nil {
		return domain.ConfigProfile{}, err
	}
	for _, p := range profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return domain.ConfigProfile{}, fmt.Errorf("profile %s not found", name)
}

// parseProfile accepts "[default]" and "[profile name]" sections. Other
// sections such as "[sso-session name]" are not profiles.
func parseProfile(section *ini.Section) (domain.ConfigProfile, bool) {
	var p domain.ConfigProfile
	switch name := section.Name(); {
	case name == "default":
		p = domain.ConfigProfile{Name: name, Type: domain.ProfileTypeDefault}
	case strings.HasPrefix(name, "profile "):
		p = domain.ConfigProfile{
			Name: strings.TrimSpace(strings.TrimPrefix(name, "profile ")),
			Type: domain.ProfileTypeNamed,
		}
	default:
		return domain.ConfigProfile{}, false
	}

	if section.HasKey("sso_session") || section.HasKey("sso_start_url") {
		p.Type = domain.ProfileTypeSSO
	}
	if section.HasKey("region") {
		p.Region = section.Key("region").String()
	}
	return p, true
}
