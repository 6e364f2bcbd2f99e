// internal/security/helper.go
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MasterKeyPath is the vault path of the keychain master key.
// The env provider reads it from KEYCHAIN_MASTER_KEY.
const MasterKeyPath = "keychain/master-key"

func pathToEnvKey(path string) string {
	// Convert "keychain/master-key" to "KEYCHAIN_MASTER_KEY"
	key := strings.ToUpper(path)
	key = strings.ReplaceAll(key, "/", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return key
}

// secretFilePath maps a vault path to a file under baseDir, refusing paths
// that would escape it
func secretFilePath(baseDir, path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if clean == "/" {
		return "", fmt.Errorf("invalid secret path: %q", path)
	}
	return filepath.Join(baseDir, clean+".enc"), nil
}
