// Package config reads the JSON document naming the frame sources a tool can open.
package config

import (
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/framesource/components/framesource"
	"go.viam.com/framesource/utils"
)

// Config describes a set of named frame sources.
type Config struct {
	ConfigFilePath string   `json:"-"`
	Sources        []Source `json:"sources"`
}

// A Source is one named frame source. Its attributes are the json form of framesource.Config.
type Source struct {
	Name       string                 `json:"name"`
	Kind       framesource.Kind       `json:"kind"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`

	ConvertedAttributes *framesource.Config `json:"-"`
}

// Validate converts the attributes and ensures the source can be opened from them.
func (s *Source) Validate(path string) error {
	if s.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if s.Kind == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "kind")
	}
	conf, err := DecodeAttributes(s.Attributes)
	if err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	conf.Kind = s.Kind
	if err := conf.Validate(path); err != nil {
		return err
	}
	s.ConvertedAttributes = conf
	return nil
}

// Validate ensures every source is valid and that names are unique.
func (c *Config) Validate() error {
	for idx := range c.Sources {
		if err := c.Sources[idx].Validate(sourcePath(idx)); err != nil {
			return err
		}
	}
	dups := lo.FindDuplicatesBy(c.Sources, func(s Source) string { return s.Name })
	if len(dups) != 0 {
		return errors.Errorf("duplicate source name %q", dups[0].Name)
	}
	return nil
}

// FindSource returns the converted config of the source called name.
func (c *Config) FindSource(name string) (framesource.Config, error) {
	s, ok := lo.Find(c.Sources, func(s Source) bool { return s.Name == name })
	if !ok {
		return framesource.Config{}, errors.Errorf("no source named %q, have %v", name, c.SourceNames())
	}
	if s.ConvertedAttributes == nil {
		return framesource.Config{}, errors.Errorf("source %q was not validated", name)
	}
	return *s.ConvertedAttributes, nil
}

// SourceNames returns the names of all sources in file order.
func (c *Config) SourceNames() []string {
	return lo.Map(c.Sources, func(s Source, _ int) string { return s.Name })
}

// DecodeAttributes converts a json attribute map into a framesource.Config. Durations may be
// given as strings such as "250ms". Unknown attributes are an error.
func DecodeAttributes(attrs map[string]interface{}) (*framesource.Config, error) {
	var conf framesource.Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      &conf,
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "error creating decoder")
	}
	if err := decoder.Decode(attrs); err != nil {
		return nil, errors.Wrap(err, "cannot decode attributes")
	}
	return &conf, nil
}

// resolvePaths makes relative file paths relative to the directory holding the config file.
func (c *Config) resolvePaths() {
	if c.ConfigFilePath == "" {
		return
	}
	dir := filepath.Dir(c.ConfigFilePath)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for _, s := range c.Sources {
		if s.ConvertedAttributes == nil {
			continue
		}
		s.ConvertedAttributes.DataPath = resolve(s.ConvertedAttributes.DataPath)
		s.ConvertedAttributes.GroundTruthPath = resolve(s.ConvertedAttributes.GroundTruthPath)
	}
}
