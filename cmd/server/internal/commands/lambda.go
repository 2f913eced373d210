package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"github.com/wolfeidau/c2pa-signer/internal/logger"
)

type LambdaCmd struct {
	AppFlags `embed:""`
}

// Run serves API Gateway proxy events until the Lambda runtime shuts the process down.
// lambda.StartWithOptions never returns, so the ledger is released when the runtime
// sends SIGTERM rather than on return.
func (c *LambdaCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Dev)
	ctx = log.WithContext(ctx)

	awsCfg, err := c.AWS.load(ctx, false)
	if err != nil {
		return err
	}

	a, err := c.build(ctx, awsCfg, false)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	closeOnDone(ctx, a.close)

	log.Info().Str("version", globals.Version).Msg("Starting Lambda handler")

	lambda.StartWithOptions(func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return a.router.HandleAPIGateway(log.WithContext(ctx), event)
	}, lambda.WithContext(ctx))

	return nil
}

// closeOnDone runs closeFn once ctx is done and returns a channel closed after it has run.
func closeOnDone(ctx context.Context, closeFn func()) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		<-ctx.Done()

		zerolog.Ctx(ctx).Info().Msg("Shutting down, releasing certificate ledger")
		closeFn()
	}()

	return done
}
