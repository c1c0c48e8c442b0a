package ledger

import (
	"fmt"

	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/ir"
	"github.com/togethercrew/engagement/internal/registry"
)

// Genesis config keys.
const (
	cfgBaseURI       = "base_uri"
	cfgScheme        = "scheme"
	cfgTokenTemplate = "token_template"
	cfgScoreTemplate = "score_template"
	cfgProviders     = "providers"
)

// configObject encodes a registry config for the genesis record.
func configObject(cfg registry.Config) ir.Object {
	providers := make(ir.Array, len(cfg.Providers))
	for i, p := range cfg.Providers {
		providers[i] = ir.String(p.String())
	}
	return ir.Object{
		cfgBaseURI:       ir.String(cfg.BaseURI),
		cfgScheme:        ir.String(cfg.Scheme),
		cfgTokenTemplate: ir.String(cfg.TokenTemplate),
		cfgScoreTemplate: ir.String(cfg.ScoreTemplate),
		cfgProviders:     providers,
	}
}

// configFromObject decodes a genesis config.
func configFromObject(obj ir.Object) (registry.Config, error) {
	var cfg registry.Config
	var err error
	if cfg.BaseURI, err = obj.Str(cfgBaseURI); err != nil {
		return cfg, err
	}
	if cfg.Scheme, err = obj.StrOr(cfgScheme, ""); err != nil {
		return cfg, err
	}
	if cfg.TokenTemplate, err = obj.StrOr(cfgTokenTemplate, ""); err != nil {
		return cfg, err
	}
	if cfg.ScoreTemplate, err = obj.StrOr(cfgScoreTemplate, ""); err != nil {
		return cfg, err
	}
	if raw, ok := obj[cfgProviders]; ok {
		arr, ok := raw.(ir.Array)
		if !ok {
			return cfg, fmt.Errorf("field %q: want array, got %T", cfgProviders, raw)
		}
		for i, v := range arr {
			s, ok := v.(ir.String)
			if !ok {
				return cfg, fmt.Errorf("providers[%d]: want string, got %T", i, v)
			}
			p, err := identity.ParseAddress(string(s))
			if err != nil {
				return cfg, fmt.Errorf("providers[%d]: %w", i, err)
			}
			cfg.Providers = append(cfg.Providers, p)
		}
	}
	return cfg, nil
}

// newGenesis describes a deployment of cfg by deployer.
func newGenesis(deploymentID string, deployer identity.Address, cfg registry.Config) ir.Genesis {
	return ir.Genesis{
		DeploymentID: deploymentID,
		Deployer:     deployer.String(),
		Config:       configObject(cfg),
		Version:      ir.Version,
	}
}

// deployment decodes a genesis record back into registry inputs.
func deployment(g ir.Genesis) (identity.Address, registry.Config, error) {
	if g.Version != ir.Version {
		return identity.Address{}, registry.Config{}, fmt.Errorf("unsupported journal version %q", g.Version)
	}
	deployer, err := identity.ParseAddress(g.Deployer)
	if err != nil {
		return identity.Address{}, registry.Config{}, fmt.Errorf("genesis deployer: %w", err)
	}
	cfg, err := configFromObject(g.Config)
	if err != nil {
		return identity.Address{}, registry.Config{}, fmt.Errorf("genesis config: %w", err)
	}
	return deployer, cfg, nil
}
