package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wolfeidau/c2pa-signer/internal/credentials"
	"github.com/wolfeidau/c2pa-signer/internal/util"
)

// KeygenCmd writes a local signing chain and key issued by a fresh test CA, the files
// the server reads with the file credential source.
type KeygenCmd struct {
	Dir        string `help:"Output directory" default:"." type:"path"`
	CommonName string `help:"Signing certificate common name" default:"C2PA Local Signer"`
	CAOut      string `help:"Also write the CA credentials as a JSON secret document" default:"" type:"path"`
	Force      bool   `help:"Overwrite existing files" default:"false"`
	Output     string `help:"Output format" default:"json" enum:"json,yaml" short:"o"`
}

type keygenOutput struct {
	ChainFile string `json:"chain_file" yaml:"chain_file"`
	KeyFile   string `json:"key_file" yaml:"key_file"`
	CAFile    string `json:"ca_file,omitempty" yaml:"ca_file,omitempty"`
}

func (k *KeygenCmd) Run(ctx context.Context, globals *Globals) error {
	out := keygenOutput{
		ChainFile: filepath.Join(k.Dir, credentials.CertificateChainFile),
		KeyFile:   filepath.Join(k.Dir, credentials.PrivateKeyFile),
		CAFile:    k.CAOut,
	}

	if !k.Force {
		for _, path := range []string{out.ChainFile, out.KeyFile} {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
		}
	}

	ca, err := credentials.GenerateTestCA()
	if err != nil {
		return fmt.Errorf("failed to generate test CA: %w", err)
	}

	signing, err := credentials.GenerateTestSigningCredentials(ca, k.CommonName)
	if err != nil {
		return fmt.Errorf("failed to generate signing credentials: %w", err)
	}

	if err := os.MkdirAll(k.Dir, 0o700); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(out.ChainFile, []byte(signing.CertificateChain), 0o600); err != nil {
		return fmt.Errorf("failed to write certificate chain: %w", err)
	}
	if err := os.WriteFile(out.KeyFile, []byte(signing.PrivateKey), 0o600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	if k.CAOut != "" {
		doc, err := json.MarshalIndent(ca, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal CA credentials: %w", err)
		}
		if err := os.WriteFile(k.CAOut, doc, 0o600); err != nil {
			return fmt.Errorf("failed to write CA credentials: %w", err)
		}
	}

	return util.WriteOutput(os.Stdout, k.Output, out)
}
