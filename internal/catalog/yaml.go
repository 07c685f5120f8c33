package catalog

import (
	"fmt"
	"io"
	"os"

	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
	"gopkg.in/yaml.v3"
)

// EncodeYAML writes the catalog as a YAML document.
func EncodeYAML(w io.Writer, c *Catalog) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}

// DecodeYAML reads a catalog and checks it. Rules without an id get
// "{engine_type}_{language}"; an empty language means global.
func DecodeYAML(r io.Reader) (*Catalog, error) {
	var c Catalog
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.normalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile decodes a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return DecodeYAML(f)
}

func (c *Catalog) normalize() error {
	if c.Version != "" && !models.IsSemver(c.Version) {
		return &models.ErrMalformedVersion{Version: c.Version}
	}
	for i := range c.Rules {
		r := &c.Rules[i]
		r.Normalize()
		if r.EngineType == "" {
			return &models.ErrInvalidArgument{Field: fmt.Sprintf("rules[%d].engine_type", i), Reason: "required"}
		}
		if r.ID == "" {
			r.ID = RuleID(r.EngineType, r.Language)
		}
		if r.Version != "" && !models.IsSemver(r.Version) {
			return &models.ErrMalformedVersion{Version: r.Version}
		}
		if len(r.Tiers) == 0 {
			return &models.ErrInvalidArgument{Field: "rules[" + r.ID + "].tiers", Reason: "at least one tier required"}
		}
	}
	for i := range c.Packs {
		p := &c.Packs[i]
		if p.EngineType == "" {
			return &models.ErrInvalidArgument{Field: fmt.Sprintf("packs[%d].engine_type", i), Reason: "required"}
		}
		if p.PackID == "" {
			p.PackID = models.BehaviourPackID(p.EngineType, p.ChannelID)
		}
		if p.Version != "" && !models.IsSemver(p.Version) {
			return &models.ErrMalformedVersion{Version: p.Version}
		}
		if p.Defaults == nil {
			p.Defaults = map[string]interface{}{}
		}
	}
	return nil
}
