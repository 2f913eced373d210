package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/wolfeidau/c2pa-signer/internal/util"
)

type ConfigurationCmd struct {
	ClientFlags `embed:""`

	ChainOut string `help:"Write the decoded PEM certificate chain to this file" default:"" type:"path"`
}

func (c *ConfigurationCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := c.client(globals).Configuration(ctx)
	if err != nil {
		return fmt.Errorf("failed to get configuration: %w", err)
	}

	if c.ChainOut != "" {
		chain, err := base64.StdEncoding.DecodeString(cfg.CertificateChain)
		if err != nil {
			return fmt.Errorf("failed to decode certificate chain: %w", err)
		}
		if err := os.WriteFile(c.ChainOut, chain, 0o600); err != nil {
			return fmt.Errorf("failed to write certificate chain: %w", err)
		}
	}

	return util.WriteOutput(os.Stdout, c.Output, cfg)
}
