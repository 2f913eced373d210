package commands

import (
	"time"

	"github.com/wolfeidau/c2pa-signer/internal/client"
)

type Globals struct {
	Debug   bool
	Version string
}

// ClientFlags configure the API client shared by the remote commands
type ClientFlags struct {
	Server  string        `help:"Signing server URL" default:"http://localhost:3000" env:"C2PA_SERVER_URL"`
	Token   string        `help:"Bearer token for /api/v1/c2pa routes" default:"" env:"SIGNING_SERVER_TOKEN"`
	Timeout time.Duration `help:"Request timeout" default:"30s"`
	Retries uint          `help:"Attempts per request, server errors and network failures are retried" default:"3"`
	Output  string        `help:"Output format" default:"json" enum:"json,yaml" short:"o"`
}

func (f *ClientFlags) client(_ *Globals) *client.Client {
	return client.New(client.Config{
		ServerURL:  f.Server,
		Token:      f.Token,
		Timeout:    f.Timeout,
		MaxRetries: f.Retries,
	}, nil)
}
