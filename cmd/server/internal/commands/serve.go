package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wolfeidau/c2pa-signer/internal/bootstrap"
	"github.com/wolfeidau/c2pa-signer/internal/credentials"
	"github.com/wolfeidau/c2pa-signer/internal/logger"
	"github.com/wolfeidau/c2pa-signer/internal/telemetry"
)

type ServeCmd struct {
	AppFlags `embed:""`

	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:3000" env:"C2PA_LISTEN"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"*" env:"C2PA_CORS_ORIGINS"`

	// Development and operational modes
	Development      bool `help:"development mode - auto-setup LocalStack credentials, ledger table and KMS key" default:"false" env:"C2PA_DEVELOPMENT"`
	DevelopmentClean bool `help:"recreate resources on startup in development mode (deletes all data)" default:"false" env:"C2PA_DEVELOPMENT_CLEAN"`
	Tracing          bool `help:"enable tracing" default:"false" env:"C2PA_TRACING"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Dev)
	ctx = log.WithContext(ctx)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("dev", globals.Dev).Msg("Starting server")

	// Setup telemetry if enabled
	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{ServiceName: "c2pa-signer", Version: globals.Version})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	if c.Development && c.AWS.Endpoint == "" {
		c.AWS.Endpoint = localStackEndpoint
	}

	awsCfg, err := c.AWS.load(ctx, c.Development)
	if err != nil {
		return err
	}

	// Development mode: auto-setup LocalStack infrastructure
	if c.Development {
		if err := c.bootstrapDevelopment(ctx, awsCfg); err != nil {
			return err
		}
	}

	a, err := c.build(ctx, awsCfg, !allowsAnyOrigin(c.CORSOrigins))
	if err != nil {
		return err
	}
	defer a.close()

	handler := withCORS(c.CORSOrigins, a.router.Handler(log))
	if c.Tracing {
		handler = otelhttp.NewHandler(handler, "c2pa-signer")
	}

	srv := configureHTTPServer(c.Listen, handler)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown HTTP server")
		}
	}()

	log.Info().Str("addr", c.Listen).Strs("cors_origins", c.CORSOrigins).Msg("Starting HTTP server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}

// bootstrapDevelopment creates LocalStack resources and points the app flags at them
func (c *ServeCmd) bootstrapDevelopment(ctx context.Context, awsCfg aws.Config) error {
	log := zerolog.Ctx(ctx)
	log.Info().Str("endpoint", c.AWS.Endpoint).Msg("Development mode enabled - setting up LocalStack infrastructure")

	cfg := bootstrap.Config{
		DynamoClient:   c.AWS.dynamoDB(awsCfg),
		SecretsClient:  c.AWS.secretsManager(awsCfg),
		Environment:    "dev",
		CleanResources: c.DevelopmentClean,
	}
	if c.UseKMS && c.KMSKeyID == "" {
		cfg.KMSClient = c.AWS.kms(awsCfg)
	}

	resources, err := bootstrap.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to bootstrap development infrastructure: %w", err)
	}

	c.CredentialsSource = string(credentials.SourceSecretsManager)
	c.SigningCredentialsSecret = resources.SigningSecretName
	c.CACredentialsSecret = resources.CASecretName
	if c.Ledger.Ledger == ledgerNone {
		c.Ledger.Ledger = ledgerDynamoDB
	}
	c.Ledger.LedgerTable = resources.LedgerTable
	if resources.KMSKeyID != "" {
		c.KMSKeyID = resources.KMSKeyID
	}
	if c.Environment == defaultEnvironment {
		c.Environment = "development"
	}

	log.Info().
		Str("ledger_table", resources.LedgerTable).
		Str("signing_secret", resources.SigningSecretName).
		Str("ca_secret", resources.CASecretName).
		Str("kms_key_id", resources.KMSKeyID).
		Msg("Development infrastructure ready")

	return nil
}

const defaultEnvironment = "production"

// allowsAnyOrigin reports whether the router's wildcard CORS headers match the policy
func allowsAnyOrigin(origins []string) bool {
	return len(origins) == 1 && origins[0] == "*"
}
