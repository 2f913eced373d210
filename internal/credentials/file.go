package credentials

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const (
	// CertificateChainFile is the PEM chain read in file mode
	CertificateChainFile = "es256_certs.pem"

	// PrivateKeyFile is the PEM private key read in file mode
	PrivateKeyFile = "es256_private.key"
)

// FileProvider reads signing credentials from two PEM files in a directory and
// generates an ephemeral test CA for certificate issuance. Intended for local
// development only.
type FileProvider struct {
	dir string
}

// NewFileProvider creates a provider reading from dir, empty means the working directory.
func NewFileProvider(dir string) *FileProvider {
	if dir == "" {
		dir = "."
	}
	return &FileProvider{dir: dir}
}

// SigningCredentials reads the chain and key files. Individual file errors are
// logged but collapsed into ErrFilesUnavailable.
func (p *FileProvider) SigningCredentials(ctx context.Context) (*SigningCredentials, error) {
	certPath := filepath.Join(p.dir, CertificateChainFile)
	keyPath := filepath.Join(p.dir, PrivateKeyFile)

	chain, err := os.ReadFile(certPath)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("path", certPath).Msg("failed to read certificate chain")
		return nil, ErrFilesUnavailable
	}

	key, err := os.ReadFile(keyPath)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("path", keyPath).Msg("failed to read private key")
		return nil, ErrFilesUnavailable
	}

	zerolog.Ctx(ctx).Debug().Str("dir", p.dir).Msg("loaded signing credentials from files")

	return &SigningCredentials{
		CertificateChain: string(chain),
		PrivateKey:       string(key),
	}, nil
}

// CACredentials generates a fresh test CA on every call.
func (p *FileProvider) CACredentials(ctx context.Context) (*CACredentials, error) {
	creds, err := GenerateTestCA()
	if err != nil {
		return nil, wrapCA(err)
	}

	zerolog.Ctx(ctx).Debug().Msg("generated test CA credentials")

	return creds, nil
}
