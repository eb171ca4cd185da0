// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager defaults and service entry conversion
package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/hashicorp/mdns"
)

func TestNewManagerDefaults(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "Desk", Port: 8928})
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	if mgr.config.Path != "/monitor" {
		t.Errorf("expected default path /monitor, got %s", mgr.config.Path)
	}
	if mgr.config.BrowseTimeout != 3*time.Second {
		t.Errorf("expected default timeout 3s, got %v", mgr.config.BrowseTimeout)
	}
}

func TestAdvertiseRejectsInvalidPort(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "Desk"})
	if err := mgr.Advertise(); err == nil {
		t.Fatal("expected error for port 0")
	}
	mgr.Stop()
}

func TestInstanceFromEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *mdns.ServiceEntry
		wantNil  bool
		wantPath string
		wantAddr string
	}{
		{"nil entry", nil, true, "", ""},
		{"no ipv4", &mdns.ServiceEntry{Name: "x", Port: 1}, true, "", ""},
		{
			"with path",
			&mdns.ServiceEntry{Name: "desk", AddrV4: net.ParseIP("192.168.1.20"), Port: 8928, InfoFields: []string{"path=/ws"}},
			false, "/ws", "192.168.1.20:8928",
		},
		{
			"default path",
			&mdns.ServiceEntry{Name: "desk", AddrV4: net.ParseIP("10.0.0.2"), Port: 9000},
			false, "/monitor", "10.0.0.2:9000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := instanceFromEntry(tt.entry)
			if tt.wantNil {
				if inst != nil {
					t.Fatalf("expected nil, got %+v", inst)
				}
				return
			}
			if inst == nil {
				t.Fatal("expected instance")
			}
			if inst.Path != tt.wantPath {
				t.Errorf("expected path %s, got %s", tt.wantPath, inst.Path)
			}
			if inst.Addr() != tt.wantAddr {
				t.Errorf("expected addr %s, got %s", tt.wantAddr, inst.Addr())
			}
		})
	}
}
