package api

import "os"

// TLSConfig holds TLS certificate paths loaded from environment
// variables.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// initTLS reads cert and key paths from the environment. Nil means
// plain HTTP.
func initTLS() *TLSConfig {
	certFile := os.Getenv("STORYLOOM_TLS_CERT")
	keyFile := os.Getenv("STORYLOOM_TLS_KEY")

	if certFile == "" || keyFile == "" {
		return nil
	}
	return &TLSConfig{
		CertFile: certFile,
		KeyFile:  keyFile,
	}
}
