package util

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

func GetIDFromString(str *string) string {
	hasher := sha1.New()
	hasher.Write([]byte(*str))

	return hex.EncodeToString(hasher.Sum(nil))
}

// SafeFileName strips path separators and parent references so a remote
// file name cannot escape its cache directory.
func SafeFileName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" {
		name = "unnamed"
	}

	return name
}
