// Command fingerprint prints the fingerprint of a client certificate
// so it can be used as an accounts key in the gateway configuration.
package main

import (
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"os"

	"github.com/joverton/gemsky/internal/gemini"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var certPath string
	flag.StringVar(&certPath, "cert", "", "path to a PEM-encoded client certificate")
	flag.Parse()

	if certPath == "" {
		return fmt.Errorf("--cert is required")
	}

	data, err := os.ReadFile(certPath)
	if err != nil {
		return fmt.Errorf("read certificate: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return fmt.Errorf("%s does not contain a PEM certificate", certPath)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return fmt.Errorf("parse certificate: %w", err)
	}

	fmt.Println(gemini.Fingerprint(cert))
	return nil
}
