package server

import (
	"crypto/tls"
	"sync"
	"time"
)

const tlsCertReloadInterval = time.Minute * 10

type tlsCertCache struct {
	mu         sync.Mutex
	cert       *tls.Certificate
	reloadedAt time.Time
	certFile   string
	keyFile    string
}

func (c *tlsCertCache) loadCert(chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.Before(c.reloadedAt) || !now.Before(c.reloadedAt.Add(tlsCertReloadInterval)) {
		cert, err := tls.LoadX509KeyPair(c.certFile, c.keyFile)
		if err != nil {
			return &tls.Certificate{}, err
		}
		c.cert = &cert
		c.reloadedAt = now
	}
	return c.cert, nil
}

// NewTLSConfig returns a server configuration that serves the certificate in
// certFile and keyFile, reloading both periodically. The files are checked
// once up front.
func NewTLSConfig(certFile, keyFile string) (*tls.Config, error) {
	certCache := &tlsCertCache{
		certFile: certFile,
		keyFile:  keyFile,
	}
	_, err := certCache.loadCert(nil)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		GetCertificate: certCache.loadCert,
		MinVersion:     tls.VersionTLS13,
	}, nil
}
