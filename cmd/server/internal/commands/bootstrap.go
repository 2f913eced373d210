package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/wolfeidau/c2pa-signer/internal/bootstrap"
	"github.com/wolfeidau/c2pa-signer/internal/logger"
	"github.com/wolfeidau/c2pa-signer/internal/util"
)

type BootstrapCmd struct {
	AWS AWSFlags `embed:"" prefix:"aws-"`

	Environment string `help:"prefix for created resource names" default:"dev" env:"C2PA_BOOTSTRAP_ENVIRONMENT"`
	KMS         bool   `name:"kms" help:"also create a P-256 KMS signing key" default:"false"`
	Clean       bool   `help:"recreate existing resources (deletes all data)" default:"false"`
	Delete      bool   `help:"delete the resources instead of creating them" default:"false"`
	LocalStack  bool   `name:"localstack" help:"use static test credentials and the LocalStack endpoint" default:"true" negatable:""`
	Output      string `help:"output format" default:"json" enum:"json,yaml" short:"o"`
}

// Run provisions the secrets, ledger table and optional KMS key used by the server
func (c *BootstrapCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Dev)
	ctx = log.WithContext(ctx)

	if c.LocalStack && c.AWS.Endpoint == "" {
		c.AWS.Endpoint = localStackEndpoint
	}

	awsCfg, err := c.AWS.load(ctx, c.LocalStack)
	if err != nil {
		return err
	}

	cfg := bootstrap.Config{
		DynamoClient:   c.AWS.dynamoDB(awsCfg),
		SecretsClient:  c.AWS.secretsManager(awsCfg),
		Environment:    c.Environment,
		CleanResources: c.Clean,
	}
	if c.KMS {
		cfg.KMSClient = c.AWS.kms(awsCfg)
	}

	if c.Delete {
		if err := bootstrap.Cleanup(ctx, cfg, bootstrap.ResourceNames(c.Environment)); err != nil {
			return fmt.Errorf("failed to delete resources: %w", err)
		}
		log.Info().Str("environment", c.Environment).Msg("Resources deleted")
		return nil
	}

	resources, err := bootstrap.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to bootstrap resources: %w", err)
	}

	return util.WriteOutput(os.Stdout, c.Output, resources)
}
