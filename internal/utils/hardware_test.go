package utils

import (
	"net"
	"strings"
	"testing"
)

func TestTerminalID_Override(t *testing.T) {
	if got := TerminalID(" TILL-02 "); got != "TILL-02" {
		t.Errorf("expected override, got %q", got)
	}
}

func TestTerminalIDFrom_UsesFirstActiveInterface(t *testing.T) {
	mac, _ := net.ParseMAC("00:1a:2b:3c:4d:5e")
	other, _ := net.ParseMAC("66:77:88:99:aa:bb")
	interfaces := []net.Interface{
		{Name: "lo", Flags: net.FlagUp | net.FlagLoopback, HardwareAddr: other},
		{Name: "eth1", Flags: 0, HardwareAddr: other},
		{Name: "eth0", Flags: net.FlagUp, HardwareAddr: mac},
	}

	id := terminalIDFrom(interfaces, "host")
	if !strings.HasPrefix(id, "TERM-") || len(id) != len("TERM-")+8 {
		t.Fatalf("unexpected id %q", id)
	}
	if id != terminalIDFrom(interfaces[2:], "other-host") {
		t.Error("expected id to depend only on the active interface")
	}
}

func TestTerminalIDFrom_FallsBack(t *testing.T) {
	if got := terminalIDFrom(nil, ""); got != unknownTerminal {
		t.Errorf("expected %s, got %s", unknownTerminal, got)
	}
	if got := terminalIDFrom(nil, "till-host"); got == unknownTerminal {
		t.Error("expected hostname based id")
	}
}
