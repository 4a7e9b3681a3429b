package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/edvin/mailhub/internal/provider"
	"github.com/edvin/mailhub/internal/provider/cpanel"
	"github.com/edvin/mailhub/internal/provider/gworkspace"
	"github.com/edvin/mailhub/internal/provider/msgraph"
	"github.com/edvin/mailhub/internal/provider/purelymail"
	"github.com/edvin/mailhub/internal/provider/tokencache"
)

// ProvidersSpec is the on-disk provider configuration. Each section is
// the adapter's own config struct, so a provider's file keys and its
// code stay in one place.
type ProvidersSpec struct {
	// Default names the provider used when a request does not pick one
	// and no platform override is set.
	Default    string            `yaml:"default"`
	CPanel     cpanel.Config     `yaml:"cpanel"`
	Purelymail purelymail.Config `yaml:"purelymail"`
	Microsoft  msgraph.Config    `yaml:"microsoft365"`
	Google     gworkspace.Config `yaml:"gworkspace"`
}

// LoadProviders reads the providers file and fills secrets from the
// environment where the file leaves them empty. A missing file is not
// an error: the platform runs with every provider unconfigured.
func LoadProviders(path string) (*ProvidersSpec, error) {
	var spec ProvidersSpec

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read providers file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("parse providers file %s: %w", path, err)
		}
	}

	spec.applyEnv()
	return &spec, nil
}

// Registry builds every adapter from the parsed providers file.
// Disabled and unconfigured adapters are registered too, so read
// endpoints can still describe them.
func (s *ProvidersSpec) Registry(logger zerolog.Logger) (*provider.Registry, error) {
	reg := provider.NewRegistry()
	adapters := []provider.Provider{
		cpanel.New(s.CPanel),
		purelymail.New(s.Purelymail),
		msgraph.New(s.Microsoft, tokencache.New(), logger),
		gworkspace.New(s.Google, tokencache.New()),
	}
	for _, a := range adapters {
		if err := reg.Register(a); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// applyEnv lets deployments keep credentials out of the file.
func (s *ProvidersSpec) applyEnv() {
	if s.CPanel.APIToken == "" {
		s.CPanel.APIToken = os.Getenv("CPANEL_API_TOKEN")
	}
	if s.Purelymail.APIToken == "" {
		s.Purelymail.APIToken = os.Getenv("PURELYMAIL_API_TOKEN")
	}
	if s.Microsoft.ClientSecret == "" {
		s.Microsoft.ClientSecret = os.Getenv("MSGRAPH_CLIENT_SECRET")
	}
	if s.Google.PrivateKey == "" {
		s.Google.PrivateKey = os.Getenv("GWORKSPACE_PRIVATE_KEY")
	}
}
