package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"strings"
)

const unknownTerminal = "TERM-UNKNOWN"

// TerminalID derives a stable identifier for this machine, stamped on every
// transaction record as "TERM-A1B2C3D4". An explicit override wins.
func TerminalID(override string) string {
	if override = strings.TrimSpace(override); override != "" {
		return override
	}
	interfaces, err := net.Interfaces()
	if err != nil {
		return unknownTerminal
	}
	return terminalIDFrom(interfaces, hostname())
}

func terminalIDFrom(interfaces []net.Interface, host string) string {
	var macAddress string
	for _, i := range interfaces {
		// first active physical network interface
		if i.Flags&net.FlagUp != 0 && i.Flags&net.FlagLoopback == 0 && len(i.HardwareAddr) > 0 {
			macAddress = i.HardwareAddr.String()
			break
		}
	}

	seed := macAddress
	if seed == "" {
		seed = host
	}
	if seed == "" {
		return unknownTerminal
	}

	hash := sha256.Sum256([]byte(seed + "POS-TERMINAL"))
	return "TERM-" + strings.ToUpper(hex.EncodeToString(hash[:])[:8])
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return ""
	}
	return h
}
