package commands

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"github.com/wolfeidau/c2pa-signer/internal/pki"
	"github.com/wolfeidau/c2pa-signer/internal/util"
)

// CSRCmd creates a certificate signing request and optionally submits it to the
// server's certificate endpoint.
type CSRCmd struct {
	ClientFlags `embed:""`

	CommonName   string `help:"Subject common name" default:"C2PA Signer"`
	Organization string `help:"Subject organization" default:""`
	Email        string `help:"Email address added to the request" default:""`

	Key         string `help:"Existing PEM private key, a new P-256 key is generated when empty" default:"" type:"existingfile" xor:"key"`
	KMSKeyID    string `name:"kms-key-id" help:"Sign the request with this KMS key instead of a local key" default:"" env:"KMS_KEY_ID" xor:"key"`
	AWSEndpoint string `name:"aws-endpoint" help:"AWS endpoint URL override (for LocalStack)" default:"" env:"AWS_ENDPOINT_URL"`

	KeyOut   string `help:"Where to write a generated private key" default:"es256_private.key" type:"path"`
	CSROut   string `help:"Where to write the PEM request" default:"request.csr" type:"path"`
	Submit   bool   `help:"Submit the request to the server and write the returned chain" default:"false"`
	ChainOut string `help:"Where to write the issued certificate chain" default:"es256_certs.pem" type:"path"`
}

type csrOutput struct {
	CSRFile      string `json:"csr_file" yaml:"csr_file"`
	KeyFile      string `json:"key_file,omitempty" yaml:"key_file,omitempty"`
	ChainFile    string `json:"chain_file,omitempty" yaml:"chain_file,omitempty"`
	SerialNumber string `json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
	ExpiresAt    string `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

func (c *CSRCmd) Run(ctx context.Context, globals *Globals) error {
	signer, keyFile, err := c.signer(ctx)
	if err != nil {
		return err
	}

	csrPEM, err := createCSR(signer, c.subject(), c.Email)
	if err != nil {
		return err
	}

	if err := os.WriteFile(c.CSROut, csrPEM, 0o600); err != nil {
		return fmt.Errorf("failed to write CSR: %w", err)
	}

	out := csrOutput{CSRFile: c.CSROut, KeyFile: keyFile}

	if c.Submit {
		issued, err := c.client(globals).IssueCertificate(ctx, string(csrPEM))
		if err != nil {
			return fmt.Errorf("failed to issue certificate: %w", err)
		}

		if err := os.WriteFile(c.ChainOut, []byte(issued.CertificateChain), 0o600); err != nil {
			return fmt.Errorf("failed to write certificate chain: %w", err)
		}

		out.ChainFile = c.ChainOut
		out.SerialNumber = issued.SerialNumber
		out.ExpiresAt = issued.ExpiresAt
	}

	return util.WriteOutput(os.Stdout, c.Output, out)
}

func (c *CSRCmd) subject() pkix.Name {
	name := pkix.Name{CommonName: c.CommonName}
	if c.Organization != "" {
		name.Organization = []string{c.Organization}
	}
	return name
}

// signer returns the key signing the request and the file a generated key was written to
func (c *CSRCmd) signer(ctx context.Context) (crypto.Signer, string, error) {
	switch {
	case c.KMSKeyID != "":
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := kms.NewFromConfig(awsCfg, func(o *kms.Options) {
			if c.AWSEndpoint != "" {
				o.BaseEndpoint = aws.String(c.AWSEndpoint)
			}
		})

		signer, err := pki.NewKMSCryptoSigner(ctx, client, c.KMSKeyID)
		if err != nil {
			return nil, "", err
		}
		return signer, "", nil

	case c.Key != "":
		keyPEM, err := os.ReadFile(c.Key)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read private key: %w", err)
		}
		key, err := pki.ParseECPrivateKey(keyPEM)
		if err != nil {
			return nil, "", err
		}
		return key, "", nil

	default:
		key, err := pki.GenerateKey()
		if err != nil {
			return nil, "", fmt.Errorf("failed to generate key: %w", err)
		}
		keyPEM, err := pki.EncodePrivateKeyPEM(key)
		if err != nil {
			return nil, "", err
		}
		if err := os.WriteFile(c.KeyOut, keyPEM, 0o600); err != nil {
			return nil, "", fmt.Errorf("failed to write private key: %w", err)
		}
		return key, c.KeyOut, nil
	}
}

func createCSR(signer crypto.Signer, subject pkix.Name, email string) ([]byte, error) {
	template := &x509.CertificateRequest{
		Subject:            subject,
		SignatureAlgorithm: x509.ECDSAWithSHA256,
	}
	if email != "" {
		template.EmailAddresses = []string{email}
	}

	der, err := x509.CreateCertificateRequest(rand.Reader, template, signer)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate request: %w", err)
	}

	return pki.EncodeCSRPEM(der), nil
}
