package cryptography

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"github.com/lepaya/data-snowflake-client/lib/typing"
)

func LoadRSAKey(filePath string) (*rsa.PrivateKey, error) {
	keyBytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseRSAPrivateKey(keyBytes)
}

// DecodeRSAKey accepts PEM text, or PEM text that was base64 encoded to fit in a single environment variable.
func DecodeRSAKey(material string) (*rsa.PrivateKey, error) {
	material = strings.TrimSpace(material)
	if strings.HasPrefix(material, "-----BEGIN") {
		// Environment variables often carry escaped newlines.
		return ParseRSAPrivateKey([]byte(strings.ReplaceAll(material, `\n`, "\n")))
	}

	decoded, err := base64.StdEncoding.DecodeString(material)
	if err != nil {
		return nil, fmt.Errorf("private key is neither PEM nor base64 encoded: %w", err)
	}

	return ParseRSAPrivateKey(decoded)
}

func ParseRSAPrivateKey(keyBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(bytes.TrimSpace(keyBytes))
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block containing private key")
	}

	if block.Type == "RSA PRIVATE KEY" {
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		return key, nil
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	rsaKey, err := typing.AssertType[*rsa.PrivateKey](key)
	if err != nil {
		return nil, err
	}

	return rsaKey, nil
}
