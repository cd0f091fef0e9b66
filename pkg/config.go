package cutarelease

import (
	"errors"
	"os"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the project directory.
const DefaultConfigFile = ".cutarelease.yml"

// Config is the optional per-project configuration file.
type Config struct {
	Project      string        `yaml:"project"`
	Changelog    string        `yaml:"changelog"`
	VersionFiles []string      `yaml:"version_files"`
	Publish      PublishConfig `yaml:"publish"`
}

// PublishConfig holds the publish command lines.
type PublishConfig struct {
	// Disabled skips the publish step entirely.
	Disabled bool     `yaml:"disabled"`
	NPM      []string `yaml:"npm"`
	PyPI     []string `yaml:"pypi"`
}

var versionFileSpecRe = regexp.MustCompile(`^([a-z]+:)?\S.*$`)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Changelog, validation.Required),
		validation.Field(&c.VersionFiles, validation.Each(validation.Required, validation.Match(versionFileSpecRe))),
	); err != nil {
		return err
	}
	return c.Publish.Validate()
}

// Validate validates the publish commands.
func (c *PublishConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.NPM, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.PyPI, validation.Required, validation.Each(validation.Required)),
	)
}

// NewDefaultConfig returns the configuration used when no file exists.
func NewDefaultConfig() *Config {
	return &Config{
		Changelog: "CHANGES.md",
		Publish: PublishConfig{
			NPM:  []string{"npm", "publish"},
			PyPI: []string{"python", "setup.py", "sdist", "--formats", "zip", "upload"},
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults, expanding
// environment variables first. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, errorf(ErrConfig, "failed to read config file %s: %v", path, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, errorf(ErrConfig, "failed to parse config file %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errorf(ErrConfig, "config file %s: %v", path, err)
	}
	return cfg, nil
}
