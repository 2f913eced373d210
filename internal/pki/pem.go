package pki

import (
	"errors"
	"regexp"
)

var (
	privateKeyPattern  = regexp.MustCompile(`-----BEGIN (EC PRIVATE KEY|PRIVATE KEY)-----[\s\S]+?-----END (EC PRIVATE KEY|PRIVATE KEY)-----`)
	certificatePattern = regexp.MustCompile(`-----BEGIN CERTIFICATE-----[\s\S]+?-----END CERTIFICATE-----`)
)

// ErrNoCertificates is returned when a PEM document holds no certificate blocks
var ErrNoCertificates = errors.New("no certificates found in PEM content")

// ExtractPrivateKey returns the first private key block found in a PEM bundle,
// for combined files that carry both the chain and the key.
func ExtractPrivateKey(pemContent string) (string, error) {
	match := privateKeyPattern.FindString(pemContent)
	if match == "" {
		return "", ErrInvalidPrivateKey
	}
	return match, nil
}

// ExtractCertificates returns every certificate block in order of appearance.
func ExtractCertificates(pemContent string) ([]string, error) {
	certs := certificatePattern.FindAllString(pemContent, -1)
	if len(certs) == 0 {
		return nil, ErrNoCertificates
	}
	return certs, nil
}
