// sample implementation, do not build or test
//go:build ignore

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// GetHWID derives a stable hardware identifier from machine-specific
// sources. The registry stores whatever string the client presents, so
// the only requirement is that the derivation is deterministic for a
// given machine.
func GetHWID() string {
	raw := strings.Join([]string{
		getMachineID(),
		getCPUID(),
		getDiskID(),
	}, "|")

	sum := sha256.Sum256([]byte(raw))
	return strings.ToUpper(hex.EncodeToString(sum[:16]))
}
