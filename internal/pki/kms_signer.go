package pki

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/x509"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
)

// ErrKMSKeyNotConfigured is returned before any network call when no key id is set.
var ErrKMSKeyNotConfigured = errors.New("KMS_KEY_ID environment variable is not set")

// KMSAPI is the subset of the KMS client used for signing.
type KMSAPI interface {
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
}

// KMSSigner implements Signer using an asymmetric ECC_NIST_P256 key in AWS KMS.
// The private key never leaves KMS, the claim is sent as a RAW message and KMS
// performs the SHA-256 hashing.
type KMSSigner struct {
	kmsClient KMSAPI
	kmsKeyID  string
}

// NewKMSSigner creates a KMSSigner. The kmsKeyID can be a key ID, key ARN, alias name,
// or alias ARN. An empty id is accepted here and reported on first use.
func NewKMSSigner(kmsClient KMSAPI, kmsKeyID string) *KMSSigner {
	return &KMSSigner{
		kmsClient: kmsClient,
		kmsKeyID:  kmsKeyID,
	}
}

// Sign signs the raw claim bytes with ECDSA_SHA_256.
func (s *KMSSigner) Sign(ctx context.Context, data []byte) ([]byte, error) {
	if s.kmsKeyID == "" {
		return nil, ErrKMSKeyNotConfigured
	}

	signOutput, err := s.kmsClient.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(s.kmsKeyID),
		Message:          data,
		MessageType:      types.MessageTypeRaw,
		SigningAlgorithm: types.SigningAlgorithmSpecEcdsaSha256,
	})
	if err != nil {
		return nil, fmt.Errorf("KMS signing failed: %w", err)
	}

	if len(signOutput.Signature) == 0 {
		return nil, errors.New("KMS signing failed: no signature returned")
	}

	return signOutput.Signature, nil
}

// NewKMSCryptoSigner creates a crypto.Signer backed by AWS KMS.
// This is used to sign certificate requests for keys held in KMS, so the issued
// certificate matches the key the server signs claims with.
func NewKMSCryptoSigner(ctx context.Context, kmsClient KMSAPI, kmsKeyID string) (crypto.Signer, error) {
	if kmsKeyID == "" {
		return nil, ErrKMSKeyNotConfigured
	}

	pubKeyOutput, err := kmsClient.GetPublicKey(ctx, &kms.GetPublicKeyInput{
		KeyId: aws.String(kmsKeyID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get public key from KMS: %w", err)
	}

	kmsPublicKey, err := x509.ParsePKIXPublicKey(pubKeyOutput.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse KMS public key: %w", err)
	}

	ecdsaPubKey, ok := kmsPublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("KMS key is not ECDSA (got %T)", kmsPublicKey)
	}

	return &kmsCryptoSigner{
		kmsClient: kmsClient,
		kmsKeyID:  kmsKeyID,
		publicKey: ecdsaPubKey,
		ctx:       ctx,
	}, nil
}

// kmsCryptoSigner implements crypto.Signer using AWS KMS
type kmsCryptoSigner struct {
	kmsClient KMSAPI
	kmsKeyID  string
	publicKey *ecdsa.PublicKey
	ctx       context.Context
}

// Public returns the public key
func (k *kmsCryptoSigner) Public() crypto.PublicKey {
	return k.publicKey
}

// Sign signs a SHA-256 digest using AWS KMS
func (k *kmsCryptoSigner) Sign(_ io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	if opts.HashFunc() != crypto.SHA256 {
		return nil, fmt.Errorf("KMS signer only supports SHA256, got %v", opts.HashFunc())
	}

	signOutput, err := k.kmsClient.Sign(k.ctx, &kms.SignInput{
		KeyId:            aws.String(k.kmsKeyID),
		Message:          digest,
		MessageType:      types.MessageTypeDigest,
		SigningAlgorithm: types.SigningAlgorithmSpecEcdsaSha256,
	})
	if err != nil {
		return nil, fmt.Errorf("KMS sign operation failed: %w", err)
	}

	// KMS already returns an ASN.1 DER SEQUENCE of r and s
	return signOutput.Signature, nil
}
