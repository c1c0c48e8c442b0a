// Package config loads deployment configuration files.
//
// A file is CUE (.cue) or YAML (.yaml, .yml). Either way it is unified with
// the embedded #Deployment schema, which supplies defaults and rejects
// unknown fields, before being decoded.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/registry"
)

//go:embed schema.cue
var schemaSource string

// Environment overrides.
const (
	EnvDatabase = "ENGAGEMENT_DB"
	EnvBaseURI  = "ENGAGEMENT_BASE_URI"
)

// DefaultDatabase is the journal path used when nothing else is configured.
const DefaultDatabase = "engagement.db"

// Deployment is a validated deployment configuration.
type Deployment struct {
	Deployer      string   `json:"deployer"`
	BaseURI       string   `json:"base_uri"`
	Scheme        string   `json:"scheme"`
	TokenTemplate string   `json:"token_template,omitempty"`
	ScoreTemplate string   `json:"score_template"`
	Providers     []string `json:"providers"`
	Database      string   `json:"database"`
}

// Error reports an invalid configuration file.
type Error struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Load reads, validates and decodes the file at path, then applies
// environment overrides.
func Load(path string) (*Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	d, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	if err := d.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return d, nil
}

// Parse validates data as a deployment configuration. The file extension of
// path selects the format.
func Parse(path string, data []byte) (*Deployment, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Deployment"))

	var v cue.Value
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		v = ctx.CompileBytes(data, cue.Filename(path))
	case ".yaml", ".yml":
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &Error{Path: path, Message: err.Error()}
		}
		if raw == nil {
			raw = map[string]any{}
		}
		v = ctx.Encode(raw)
	default:
		return nil, &Error{Path: path, Message: fmt.Sprintf("unsupported config format %q (want .cue, .yaml or .yml)", ext)}
	}
	if err := v.Err(); err != nil {
		return nil, cueError(path, err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(path, err)
	}

	var d Deployment
	if err := unified.Decode(&d); err != nil {
		return nil, cueError(path, err)
	}
	return &d, nil
}

// cueError keeps the first error and its position.
func cueError(path string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Path: path, Message: err.Error()}
	}
	first := errs[0]
	e := &Error{Path: path, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}

// ApplyEnv overrides fields from the environment through getenv.
func (d *Deployment) ApplyEnv(getenv func(string) string) error {
	if db := getenv(EnvDatabase); db != "" {
		d.Database = db
	}
	if base, ok := lookup(getenv, EnvBaseURI); ok {
		if base == "" {
			return &Error{Path: EnvBaseURI, Message: "base uri must not be empty"}
		}
		d.BaseURI = base
	}
	return nil
}

func lookup(getenv func(string) string, key string) (string, bool) {
	v := getenv(key)
	if v == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Registry converts the deployment into registry inputs.
func (d *Deployment) Registry() (identity.Address, registry.Config, error) {
	deployer, err := identity.ParseAddress(d.Deployer)
	if err != nil {
		return identity.Address{}, registry.Config{}, fmt.Errorf("deployer: %w", err)
	}
	cfg := registry.Config{
		BaseURI:       d.BaseURI,
		Scheme:        d.Scheme,
		TokenTemplate: d.TokenTemplate,
		ScoreTemplate: d.ScoreTemplate,
	}
	for i, p := range d.Providers {
		addr, err := identity.ParseAddress(p)
		if err != nil {
			return identity.Address{}, registry.Config{}, fmt.Errorf("providers[%d]: %w", i, err)
		}
		cfg.Providers = append(cfg.Providers, addr)
	}
	return deployer, cfg, nil
}

// DatabaseFromEnv returns the journal path from ENGAGEMENT_DB, or def.
func DatabaseFromEnv(def string) string {
	if db := os.Getenv(EnvDatabase); db != "" {
		return db
	}
	return def
}
