package signing

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/c2pa-signer/internal/credentials"
	"github.com/wolfeidau/c2pa-signer/internal/models"
	"github.com/wolfeidau/c2pa-signer/internal/pki"
)

type fakeProvider struct {
	signing *credentials.SigningCredentials
	err     error
	calls   int
}

func (f *fakeProvider) SigningCredentials(context.Context) (*credentials.SigningCredentials, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.signing, nil
}

func (f *fakeProvider) CACredentials(context.Context) (*credentials.CACredentials, error) {
	return nil, errors.New("not used")
}

type fakeSigner struct {
	signature []byte
	err       error
	data      []byte
}

func (f *fakeSigner) Sign(_ context.Context, data []byte) ([]byte, error) {
	f.data = data
	return f.signature, f.err
}

func testCredentials(t *testing.T) *credentials.SigningCredentials {
	t.Helper()

	ca, err := credentials.GenerateTestCA()
	require.NoError(t, err)

	creds, err := credentials.GenerateTestSigningCredentials(ca, "C2PA Test Signer")
	require.NoError(t, err)

	return creds
}

func TestService_SignLocal(t *testing.T) {
	ctx := context.Background()
	creds := testCredentials(t)

	signer, err := pki.NewLocalSigner(creds.PrivateKey)
	require.NoError(t, err)

	svc := NewService(Config{}, &fakeProvider{signing: creds}, nil)
	require.Equal(t, "local", svc.Mode())

	tests := []struct {
		name  string
		claim string
		want  []byte
	}{
		{
			name:  "standard base64",
			claim: base64.StdEncoding.EncodeToString([]byte("hello")),
			want:  []byte("hello"),
		},
		{
			name:  "not really base64",
			claim: "%%%not-base64%%%",
			want:  []byte{0x9e, 0x8b, 0x7e, 0x6d, 0xab, 0x1e, 0xeb},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Sign(ctx, models.SigningRequest{Claim: tt.claim})
			require.NoError(t, err)

			sig, err := base64.StdEncoding.DecodeString(resp.Signature)
			require.NoError(t, err)
			require.True(t, pki.VerifyES256(signer.Public(), tt.want, sig))
		})
	}
}

func TestService_SignKMS(t *testing.T) {
	ctx := context.Background()

	kms := &fakeSigner{signature: []byte{0x30, 0x01, 0x02}}
	provider := &fakeProvider{}
	svc := NewService(Config{UseKMS: true}, provider, kms)
	require.Equal(t, "kms", svc.Mode())

	resp, err := svc.Sign(ctx, models.SigningRequest{Claim: "aGVsbG8="})
	require.NoError(t, err)
	require.Equal(t, "MAEC", resp.Signature)
	require.Equal(t, []byte("hello"), kms.data)
	require.Zero(t, provider.calls, "kms mode must not resolve credentials")
}

func TestService_SignErrors(t *testing.T) {
	ctx := context.Background()
	creds := testCredentials(t)

	tests := []struct {
		name    string
		svc     *Service
		wantMsg string
	}{
		{
			name:    "kms not configured",
			svc:     NewService(Config{UseKMS: true}, &fakeProvider{}, nil),
			wantMsg: "C2PA signing failed: KMS_KEY_ID environment variable is not set",
		},
		{
			name:    "kms failure",
			svc:     NewService(Config{UseKMS: true}, &fakeProvider{}, &fakeSigner{err: errors.New("KMS signing failed: AccessDenied")}),
			wantMsg: "C2PA signing failed: KMS signing failed: AccessDenied",
		},
		{
			name:    "credentials unavailable",
			svc:     NewService(Config{}, &fakeProvider{err: credentials.ErrFilesUnavailable}, nil),
			wantMsg: "C2PA signing failed: Failed to load signing certificates from files",
		},
		{
			name:    "no private key",
			svc:     NewService(Config{}, &fakeProvider{signing: &credentials.SigningCredentials{CertificateChain: creds.CertificateChain}}, nil),
			wantMsg: "C2PA signing failed: Private key not available for local signing",
		},
		{
			name: "unparseable key",
			svc: NewService(Config{}, &fakeProvider{signing: &credentials.SigningCredentials{
				CertificateChain: creds.CertificateChain,
				PrivateKey:       "garbage",
			}}, nil),
			wantMsg: "C2PA signing failed: Local signing failed:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tt.svc.Sign(ctx, models.SigningRequest{Claim: "aGVsbG8="})
			require.Nil(t, resp)
			require.ErrorContains(t, err, tt.wantMsg)
			require.Equal(t, 500, models.StatusCode(err))
		})
	}
}

func TestService_SignMissingClaim(t *testing.T) {
	svc := NewService(Config{}, &fakeProvider{}, nil)

	_, err := svc.Sign(context.Background(), models.SigningRequest{})
	require.Error(t, err)
	require.Equal(t, 400, models.StatusCode(err))
}

func TestService_CertificateChain(t *testing.T) {
	ctx := context.Background()

	provider := &fakeProvider{signing: &credentials.SigningCredentials{CertificateChain: "CHAIN"}}
	svc := NewService(Config{UseKMS: true}, provider, &fakeSigner{})

	chain, err := svc.CertificateChain(ctx)
	require.NoError(t, err)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("CHAIN")), chain)

	provider.err = credentials.ErrFilesUnavailable
	_, err = svc.CertificateChain(ctx)
	require.ErrorIs(t, err, credentials.ErrFilesUnavailable)
}
