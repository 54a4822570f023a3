// Package auth resolves local credentials for the operator CLI and verifies
// them against the remote services before any product is touched.
package auth

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const credentialDir = ".product-listai"

// GetSecret retrieves a secret from available sources.
// Priority order:
//  1. the envVar environment variable
//  2. GPG-encrypted file at ~/.product-listai/<name>.gpg
func GetSecret(envVar, name string) (string, error) {
	if v := os.Getenv(envVar); v != "" {
		log.Debug().Str("envVar", envVar).Msg("Using secret from environment variable")
		return v, nil
	}

	v, err := getFromGPG(name)
	if err == nil && v != "" {
		log.Debug().Str("name", name).Msg("Using secret from GPG encrypted file")
		return v, nil
	}

	log.Debug().Err(err).Str("name", name).Msg("Secret not found")
	return "", fmt.Errorf("%s not found. Set %s or store it in ~/%s/%s.gpg", name, envVar, credentialDir, name)
}

// getFromGPG decrypts a secret from its GPG-encrypted credentials file.
func getFromGPG(name string) (string, error) {
	credPath, err := getCredentialPath(name)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(credPath); os.IsNotExist(err) {
		return "", fmt.Errorf("GPG credentials file not found at %s", credPath)
	}

	log.Debug().Str("file", credPath).Msg("Decrypting GPG credentials")

	args := []string{"--decrypt", "--quiet"}

	if passphrasePath, err := getPassphrasePath(); err == nil {
		if fi, statErr := os.Stat(passphrasePath); statErr == nil {
			// Passphrase file must be owner-only.
			if mode := fi.Mode().Perm(); mode&0077 != 0 {
				log.Warn().
					Str("passphrase_file", passphrasePath).
					Str("permissions", fmt.Sprintf("%04o", mode)).
					Msg("Passphrase file has insecure permissions (should be 0600); skipping")
			} else {
				args = append(args, "--pinentry-mode", "loopback", "--passphrase-file", passphrasePath)
			}
		}
	}

	args = append(args, credPath)
	output, err := exec.Command("gpg", args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("GPG decryption failed: %s", string(exitErr.Stderr))
		}
		return "", fmt.Errorf("GPG decryption failed: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// getCredentialPath returns the full path to a secret's credentials file.
func getCredentialPath(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, credentialDir, name+".gpg"), nil
}

// getPassphrasePath returns the path to the GPG passphrase file in the
// credentials directory.
func getPassphrasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, credentialDir, ".gpg-passphrase"), nil
}
