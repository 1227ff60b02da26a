package session

import (
	"fmt"

	"github.com/matheus3301/dmchat/internal/config"
)

const DefaultProfileName = config.DefaultProfile

// Source tells where the active profile name came from.
type Source string

const (
	SourceFlag    Source = "flag"
	SourceConfig  Source = "config"
	SourceDefault Source = "default"
)

// Profile is the resolved profile with the global config it was read from.
type Profile struct {
	Name   string
	Source Source
	Config *config.Config
}

// Resolve loads the global config and picks the profile name: the --profile
// flag, then default_profile, then "main". The name is validated, so the
// result is safe to use as a directory.
func Resolve(flagOverride string) (*Profile, error) {
	cfg, err := config.LoadOrDefault(ConfigPath())
	if err != nil {
		return nil, err
	}
	p := &Profile{Name: DefaultProfileName, Source: SourceDefault, Config: cfg}
	switch {
	case flagOverride != "":
		p.Name, p.Source = flagOverride, SourceFlag
	case cfg.DefaultProfile != "":
		p.Name, p.Source = cfg.DefaultProfile, SourceConfig
	}
	if err := ValidateName(p.Name); err != nil {
		return nil, fmt.Errorf("%s profile: %w", p.Source, err)
	}
	return p, nil
}
