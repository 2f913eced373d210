package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/wolfeidau/c2pa-signer/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Health        commands.HealthCmd        `cmd:"" help:"Check server health"`
		Configuration commands.ConfigurationCmd `cmd:"" help:"Show the signing configuration"`
		Sign          commands.SignCmd          `cmd:"" help:"Sign a claim"`
		CSR           commands.CSRCmd           `cmd:"" name:"csr" help:"Create a certificate signing request"`
		Keygen        commands.KeygenCmd        `cmd:"" help:"Generate a local signing chain and key from a test CA"`
		Debug         bool                      `help:"Enable debug mode."`
		Version       kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
