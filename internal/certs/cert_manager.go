// Package certs loads and checks the TLS certificate the server listens with.
package certs

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"time"
)

var ErrExpired = errors.New("certificate expired")

// CertManager holds the certificate and key file paths for the listener.
type CertManager struct {
	certFile string
	keyFile  string
	now      func() time.Time
}

func NewCertManager(certFile, keyFile string) *CertManager {
	return &CertManager{certFile: certFile, keyFile: keyFile, now: time.Now}
}

// Load reads the key pair and parses its leaf certificate. An expired leaf is
// an error.
func (cm *CertManager) Load() (tls.Certificate, error) {
	pair, err := tls.LoadX509KeyPair(cm.certFile, cm.keyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("load key pair %s: %w", cm.certFile, err)
	}
	if pair.Leaf == nil {
		leaf, err := x509.ParseCertificate(pair.Certificate[0])
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("parse %s: %w", cm.certFile, err)
		}
		pair.Leaf = leaf
	}
	if cm.IsExpired(pair.Leaf) {
		return tls.Certificate{}, fmt.Errorf("%s: %w on %s", cm.certFile, ErrExpired, pair.Leaf.NotAfter.Format(time.RFC3339))
	}
	return pair, nil
}

func (cm *CertManager) IsExpired(cert *x509.Certificate) bool {
	return cert.NotAfter.Before(cm.now())
}

// ExpiresWithin reports whether cert runs out in less than d.
func (cm *CertManager) ExpiresWithin(cert *x509.Certificate, d time.Duration) bool {
	return cert.NotAfter.Before(cm.now().Add(d))
}

// TLSConfig returns a server config that serves the loaded pair.
func (cm *CertManager) TLSConfig() (*tls.Config, *x509.Certificate, error) {
	pair, err := cm.Load()
	if err != nil {
		return nil, nil, err
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{pair},
	}, pair.Leaf, nil
}
