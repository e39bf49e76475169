package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultSecretsPath = "/var/run/secrets/que"
	usernameFile       = "username"
	passwordFile       = "password"
)

// tryLoadFromSecrets reads credentials from mounted Kubernetes secret files.
// Missing directories or files yield empty strings so other sources apply.
func tryLoadFromSecrets() (username, password string, err error) {
	secretsPath := os.Getenv("QUE_SECRETS_PATH")
	if secretsPath == "" {
		secretsPath = defaultSecretsPath
	}

	if _, err := os.Stat(secretsPath); os.IsNotExist(err) {
		return "", "", nil
	}

	username, err = readSecret(filepath.Join(secretsPath, usernameFile))
	if err != nil {
		return "", "", err
	}
	password, err = readSecret(filepath.Join(secretsPath, passwordFile))
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func readSecret(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
