package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/wolfeidau/c2pa-signer/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Dev       bool `help:"Enable development logging."`
		Version   kong.VersionFlag
		Serve     commands.ServeCmd     `cmd:"" default:"withargs" help:"Start the C2PA signing HTTP server"`
		Lambda    commands.LambdaCmd    `cmd:"" help:"Serve API Gateway events as an AWS Lambda function"`
		Certs     commands.CertsCmd     `cmd:"" help:"Inspect the issued certificate ledger"`
		Bootstrap commands.BootstrapCmd `cmd:"" help:"Provision credentials, ledger table and KMS key"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Dev: cli.Dev, Version: version})
	cmd.FatalIfErrorf(err)
}
