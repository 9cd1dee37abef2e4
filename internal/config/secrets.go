package config

import (
	"fmt"
	"os"
	"strings"
)

// ResolveSecret reads a credential using the *_FILE convention: when
// envName+"_FILE" is set the secret is read from that file (container
// secret mounts), otherwise the plain env var is used. Returns empty
// string when neither is set.
func ResolveSecret(envName string) (string, error) {
	if filePath := os.Getenv(envName + "_FILE"); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("failed to read secret from %s_FILE=%s: %w", envName, filePath, err)
		}
		return strings.TrimSpace(string(content)), nil
	}
	return os.Getenv(envName), nil
}
