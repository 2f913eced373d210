package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testRecord(serial, mode string, issuedAt time.Time) *CertRecord {
	return NewCertRecord(serial, "id-"+serial, "CN=signer", "-----BEGIN CERTIFICATE REQUEST-----", mode, issuedAt, issuedAt.AddDate(1, 0, 0))
}

func TestNewCertRecord(t *testing.T) {
	issued := time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)
	expires := issued.AddDate(1, 0, 0)

	rec := NewCertRecord("00AABBCCDDEEFF11", "cert-id", "CN=test", "csr", "stub", issued, expires)

	require.Equal(t, "00AABBCCDDEEFF11", rec.SerialNumber)
	require.Equal(t, "cert-id", rec.CertificateID)
	require.Equal(t, "stub", rec.IssuerMode)
	// sha256("csr")
	require.Equal(t, "wnM4xFMGe0N0ca+855JwTYFhEsYDG7mWtixpjqWZ74A=", rec.CSRFingerprint)
	require.Equal(t, expires.Add(30*24*time.Hour).Unix(), rec.TTL)
}

func TestMemoryCertificateStore_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("register new certificate", func(t *testing.T) {
		store := NewMemoryCertificateStore()
		require.NoError(t, store.Register(ctx, testRecord("01", "stub", time.Now())))
	})

	t.Run("register duplicate certificate returns error", func(t *testing.T) {
		store := NewMemoryCertificateStore()
		cert := testRecord("01", "stub", time.Now())

		require.NoError(t, store.Register(ctx, cert))
		require.ErrorIs(t, store.Register(ctx, cert), ErrCertAlreadyExists)
	})

	t.Run("stored record is a copy", func(t *testing.T) {
		store := NewMemoryCertificateStore()
		cert := testRecord("01", "stub", time.Now())
		require.NoError(t, store.Register(ctx, cert))

		cert.Subject = "CN=mutated"

		got, err := store.Get(ctx, "01")
		require.NoError(t, err)
		require.Equal(t, "CN=signer", got.Subject)
	})
}

func TestMemoryCertificateStore_Get(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCertificateStore()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrCertNotFound)

	require.NoError(t, store.Register(ctx, testRecord("01", "x509", time.Now())))

	got, err := store.Get(ctx, "01")
	require.NoError(t, err)
	require.Equal(t, "id-01", got.CertificateID)
	require.Equal(t, "x509", got.IssuerMode)
}

func TestMemoryCertificateStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCertificateStore()

	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Register(ctx, testRecord("01", "stub", base)))
	require.NoError(t, store.Register(ctx, testRecord("02", "x509", base.Add(time.Hour))))
	require.NoError(t, store.Register(ctx, testRecord("03", "stub", base.Add(2*time.Hour))))

	tests := []struct {
		name string
		opts ListCertificatesOptions
		want []string
	}{
		{name: "all newest first", opts: ListCertificatesOptions{}, want: []string{"03", "02", "01"}},
		{name: "filter by mode", opts: ListCertificatesOptions{IssuerMode: "stub"}, want: []string{"03", "01"}},
		{name: "limit", opts: ListCertificatesOptions{Limit: 1}, want: []string{"03"}},
		{name: "no matches", opts: ListCertificatesOptions{IssuerMode: "other"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certs, err := store.List(ctx, tt.opts)
			require.NoError(t, err)

			serials := make([]string, 0, len(certs))
			for _, c := range certs {
				serials = append(serials, c.SerialNumber)
			}
			require.Equal(t, tt.want, serials)
		})
	}
}

func TestMemoryCertificateStore_Capacity(t *testing.T) {
	ctx := context.Background()
	store := NewBoundedMemoryCertificateStore(2)

	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, serial := range []string{"01", "02", "03"} {
		require.NoError(t, store.Register(ctx, testRecord(serial, "stub", base.Add(time.Duration(i)*time.Hour))))
	}

	require.Equal(t, 2, store.Len())

	_, err := store.Get(ctx, "01")
	require.ErrorIs(t, err, ErrCertNotFound)

	got, err := store.Get(ctx, "03")
	require.NoError(t, err)
	require.Equal(t, "id-03", got.CertificateID)

	// an evicted serial can be registered again
	require.NoError(t, store.Register(ctx, testRecord("01", "stub", base.Add(3*time.Hour))))
	require.Equal(t, 2, store.Len())

	_, err = store.Get(ctx, "02")
	require.ErrorIs(t, err, ErrCertNotFound)
}

func TestMemoryCertificateStore_DefaultCapacity(t *testing.T) {
	ctx := context.Background()
	store := NewBoundedMemoryCertificateStore(0)

	for i := range DefaultMemoryCapacity + 10 {
		serial := fmt.Sprintf("%016X", i)
		require.NoError(t, store.Register(ctx, testRecord(serial, "stub", time.Now())))
	}

	require.Equal(t, DefaultMemoryCapacity, store.Len())
}
