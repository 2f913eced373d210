package commands

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/c2pa-signer/internal/credentials"
	"github.com/wolfeidau/c2pa-signer/internal/models"
	"github.com/wolfeidau/c2pa-signer/internal/store"
)

func TestAppFlags_CredentialsSource(t *testing.T) {
	tests := []struct {
		name          string
		source        string
		useAWSSecrets bool
		want          credentials.Source
		wantErr       string
	}{
		{name: "default is file", want: credentials.SourceFile},
		{name: "use aws secrets", useAWSSecrets: true, want: credentials.SourceSecretsManager},
		{name: "explicit source wins", source: "ssm", useAWSSecrets: true, want: credentials.SourceSSM},
		{name: "explicit file", source: "file", useAWSSecrets: true, want: credentials.SourceFile},
		{name: "unknown", source: "vault", wantErr: `unknown credentials source "vault"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &AppFlags{CredentialsSource: tt.source, UseAWSSecrets: tt.useAWSSecrets}

			got, err := f.credentialsSource()
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAppFlags_Provider(t *testing.T) {
	f := &AppFlags{
		CredentialsSource:        "secretsmanager",
		SigningCredentialsSecret: "signing",
		CACredentialsSecret:      "ca",
	}

	provider, src, err := f.provider(aws.Config{Region: "us-east-1"})
	require.NoError(t, err)
	require.Equal(t, credentials.SourceSecretsManager, src)
	require.IsType(t, &credentials.SecretsManagerProvider{}, provider)

	f.CredentialsSource = "ssm"
	provider, _, err = f.provider(aws.Config{Region: "us-east-1"})
	require.NoError(t, err)
	require.IsType(t, &credentials.SSMProvider{}, provider)
}

func writeSigningFiles(t *testing.T) string {
	t.Helper()

	ca, err := credentials.GenerateTestCA()
	require.NoError(t, err)
	signing, err := credentials.GenerateTestSigningCredentials(ca, "Test Signer")
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, credentials.CertificateChainFile), []byte(signing.CertificateChain), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, credentials.PrivateKeyFile), []byte(signing.PrivateKey), 0o600))
	return dir
}

func TestAppFlags_Build(t *testing.T) {
	ctx := zerolog.Nop().WithContext(context.Background())

	f := &AppFlags{
		Environment:    "development",
		RoutePrefix:    "/dev",
		Token:          "secret",
		CredentialsDir: writeSigningFiles(t),
		CAMode:         "stub",
		Ledger:         LedgerFlags{Ledger: ledgerMemory},
	}

	a, err := f.build(ctx, aws.Config{}, false)
	require.NoError(t, err)
	defer a.close()

	srv := httptest.NewServer(withCORS([]string{"*"}, a.router.Handler(zerolog.Nop())))
	defer srv.Close()

	t.Run("sign with local key", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/dev/api/v1/c2pa/sign", strings.NewReader(`{"claim":"aGVsbG8="}`))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer secret")

		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var signed models.SigningResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&signed))
		require.NotEmpty(t, signed.Signature)
	})

	t.Run("issue stub certificate", func(t *testing.T) {
		resp, err := srv.Client().Post(srv.URL+"/api/v1/certificates/sign", "application/json",
			strings.NewReader(`{"csr":"-----BEGIN CERTIFICATE REQUEST-----\nMIIB\n-----END CERTIFICATE REQUEST-----"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var issued map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&issued))
		require.Len(t, issued["serial_number"], 16)
		require.Contains(t, issued["certificate_chain"], "-----BEGIN CERTIFICATE-----")
	})
}

func TestAppFlags_BuildErrors(t *testing.T) {
	ctx := zerolog.Nop().WithContext(context.Background())

	t.Run("unknown credentials source", func(t *testing.T) {
		f := &AppFlags{CredentialsSource: "vault", CAMode: "stub", Ledger: LedgerFlags{Ledger: ledgerNone}}
		_, err := f.build(ctx, aws.Config{}, false)
		require.ErrorContains(t, err, "unknown credentials source")
	})

	t.Run("unknown ca mode", func(t *testing.T) {
		f := &AppFlags{CAMode: "acme", Ledger: LedgerFlags{Ledger: ledgerNone}}
		_, err := f.build(ctx, aws.Config{}, false)
		require.Error(t, err)
	})

	t.Run("postgres without connection string", func(t *testing.T) {
		f := &AppFlags{CAMode: "stub", Ledger: LedgerFlags{Ledger: ledgerPostgres}}
		_, err := f.build(ctx, aws.Config{}, false)
		require.ErrorContains(t, err, "PostgreSQL connection string is required")
	})
}

func TestWithCORS(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	})

	t.Run("preflight passes through to the handler", func(t *testing.T) {
		h := withCORS([]string{"*"}, inner)

		req := httptest.NewRequest(http.MethodOptions, "/api/v1/c2pa/sign", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "{}", w.Body.String())
		require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight with mixed case request headers is refused", func(t *testing.T) {
		h := withCORS([]string{"*"}, inner)

		req := httptest.NewRequest(http.MethodOptions, "/api/v1/c2pa/sign", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Authorization")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("restricted origins", func(t *testing.T) {
		h := withCORS([]string{"https://app.example.com"}, inner)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w = httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestLedgerFlags_Open(t *testing.T) {
	ctx := zerolog.Nop().WithContext(context.Background())

	field, ok := reflect.TypeOf(LedgerFlags{}).FieldByName("Ledger")
	require.True(t, ok)
	require.Equal(t, ledgerNone, field.Tag.Get("default"))

	t.Run("none", func(t *testing.T) {
		l := &LedgerFlags{Ledger: ledgerNone}
		ledger, closeLedger, err := l.open(ctx, &AWSFlags{}, aws.Config{})
		require.NoError(t, err)
		defer closeLedger()
		require.Nil(t, ledger)
	})

	t.Run("memory is bounded", func(t *testing.T) {
		l := &LedgerFlags{Ledger: ledgerMemory, LedgerCapacity: 2}
		ledger, closeLedger, err := l.open(ctx, &AWSFlags{}, aws.Config{})
		require.NoError(t, err)
		defer closeLedger()

		mem, ok := ledger.(*store.MemoryCertificateStore)
		require.True(t, ok)

		now := time.Now()
		for _, serial := range []string{"01", "02", "03"} {
			rec := store.NewCertRecord(serial, "id-"+serial, "CN=signer", "csr", "stub", now, now.AddDate(1, 0, 0))
			require.NoError(t, mem.Register(ctx, rec))
		}
		require.Equal(t, 2, mem.Len())
	})
}

func TestAllowsAnyOrigin(t *testing.T) {
	require.True(t, allowsAnyOrigin([]string{"*"}))
	require.False(t, allowsAnyOrigin([]string{"https://app.example.com"}))
	require.False(t, allowsAnyOrigin([]string{"*", "https://app.example.com"}))
	require.False(t, allowsAnyOrigin(nil))
}

func TestConfigureHTTPServer(t *testing.T) {
	srv := configureHTTPServer("127.0.0.1:0", http.NotFoundHandler())
	require.Equal(t, "127.0.0.1:0", srv.Addr)
	require.Equal(t, 8*1024, srv.MaxHeaderBytes)
	require.NotZero(t, srv.ReadHeaderTimeout)
}

func TestCloseOnDone(t *testing.T) {
	ctx, cancel := context.WithCancel(zerolog.Nop().WithContext(context.Background()))

	var closed atomic.Int32
	done := closeOnDone(ctx, func() { closed.Add(1) })

	require.Zero(t, closed.Load())

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ledger was not released after cancellation")
	}
	require.EqualValues(t, 1, closed.Load())
}
