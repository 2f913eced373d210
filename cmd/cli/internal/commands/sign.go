package commands

import (
	"context"
	"crypto/ecdsa"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/wolfeidau/c2pa-signer/internal/pki"
	"github.com/wolfeidau/c2pa-signer/internal/util"
)

type SignCmd struct {
	ClientFlags `embed:""`

	File   string `help:"File holding the raw claim bytes" default:"" type:"existingfile" xor:"claim"`
	Claim  string `help:"Base64 encoded claim" default:"" xor:"claim"`
	Verify bool   `help:"Verify the signature against the leaf certificate from the server configuration" default:"false"`
}

type signOutput struct {
	Signature string `json:"signature" yaml:"signature"`
	Verified  *bool  `json:"verified,omitempty" yaml:"verified,omitempty"`
}

func (s *SignCmd) Run(ctx context.Context, globals *Globals) error {
	claim, err := s.claim()
	if err != nil {
		return err
	}

	c := s.client(globals)

	signed, err := c.Sign(ctx, claim)
	if err != nil {
		return fmt.Errorf("failed to sign claim: %w", err)
	}

	out := signOutput{Signature: signed.Signature}

	if s.Verify {
		cfg, err := c.Configuration(ctx)
		if err != nil {
			return fmt.Errorf("failed to get configuration: %w", err)
		}

		ok, err := verifySignature(cfg.CertificateChain, claim, signed.Signature)
		if err != nil {
			return err
		}
		out.Verified = &ok
	}

	return util.WriteOutput(os.Stdout, s.Output, out)
}

func (s *SignCmd) claim() (string, error) {
	if s.File != "" {
		data, err := os.ReadFile(s.File)
		if err != nil {
			return "", fmt.Errorf("failed to read claim: %w", err)
		}
		return pki.EncodeBase64(data), nil
	}
	if s.Claim == "" {
		return "", errors.New("a claim is required (--file or --claim)")
	}
	return s.Claim, nil
}

// verifySignature checks a base64 signature over the base64 claim using the leaf of a
// base64 encoded PEM chain
func verifySignature(chainB64, claimB64, signatureB64 string) (bool, error) {
	chain, err := base64.StdEncoding.DecodeString(chainB64)
	if err != nil {
		return false, fmt.Errorf("failed to decode certificate chain: %w", err)
	}

	certs, err := pki.ExtractCertificates(string(chain))
	if err != nil {
		return false, fmt.Errorf("failed to extract certificates: %w", err)
	}

	leaf, err := pki.ParseCertificatePEM([]byte(certs[0]))
	if err != nil {
		return false, err
	}

	pub, ok := leaf.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return false, fmt.Errorf("leaf certificate key is not ECDSA (got %T)", leaf.PublicKey)
	}

	return pki.VerifyES256(pub, pki.DecodeBase64(claimB64), pki.DecodeBase64(signatureB64)), nil
}
