package api

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"salonhub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSelfSigned writes a throwaway cert/key pair and returns their paths.
func writeSelfSigned(t *testing.T, dir string) (string, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "salonhub-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		DNSNames:              []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certPath := filepath.Join(dir, "server.crt")
	keyPath := filepath.Join(dir, "server.key")
	require.NoError(t, os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certPath, keyPath
}

func TestBuildTLSConfig(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := writeSelfSigned(t, dir)

	t.Run("MissingFiles", func(t *testing.T) {
		_, err := buildTLSConfig(config.APITLSConfig{Enabled: true})
		assert.ErrorIs(t, err, errTLSMisconfigured)

		_, err = buildTLSConfig(config.APITLSConfig{Enabled: true, CertFile: "missing.crt", KeyFile: "missing.key"})
		assert.Error(t, err)
	})

	t.Run("ServerOnly", func(t *testing.T) {
		cfg, err := buildTLSConfig(config.APITLSConfig{Enabled: true, CertFile: certPath, KeyFile: keyPath})
		require.NoError(t, err)
		assert.Len(t, cfg.Certificates, 1)
		assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
		assert.Equal(t, tls.NoClientCert, cfg.ClientAuth)
	})

	t.Run("ClientCertWithoutCA", func(t *testing.T) {
		_, err := buildTLSConfig(config.APITLSConfig{Enabled: true, CertFile: certPath, KeyFile: keyPath, RequireClientCert: true})
		assert.ErrorIs(t, err, errTLSMisconfigured)
	})

	t.Run("ClientCertBadPEM", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.pem")
		require.NoError(t, os.WriteFile(bad, []byte("not a cert"), 0o600))
		_, err := buildTLSConfig(config.APITLSConfig{Enabled: true, CertFile: certPath, KeyFile: keyPath, RequireClientCert: true, ClientCAFile: bad})
		assert.ErrorIs(t, err, errTLSMisconfigured)
	})

	t.Run("MutualTLS", func(t *testing.T) {
		cfg, err := buildTLSConfig(config.APITLSConfig{Enabled: true, CertFile: certPath, KeyFile: keyPath, RequireClientCert: true, ClientCAFile: certPath})
		require.NoError(t, err)
		assert.Equal(t, tls.RequireAndVerifyClientCert, cfg.ClientAuth)
		assert.NotNil(t, cfg.ClientCAs)
	})
}
