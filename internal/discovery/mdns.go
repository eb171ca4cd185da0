// ABOUTME: mDNS advertisement and browsing for livepaper monitor endpoints
// ABOUTME: Lets dashboards on the LAN find running wallpaper renderers
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service livepaper monitors register under
const ServiceType = "_livepaper._tcp"

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	// Path is advertised in the TXT record so clients know where to connect
	Path string
	// BrowseTimeout bounds one query round (default: 3s)
	BrowseTimeout time.Duration
}

// Manager handles mDNS operations
type Manager struct {
	config    Config
	ctx       context.Context
	cancel    context.CancelFunc
	instances chan *Instance

	mu     sync.Mutex
	server *mdns.Server
}

// Instance describes a discovered livepaper renderer
type Instance struct {
	Name string
	Host string
	Port int
	Path string
}

// Addr returns host:port
func (i *Instance) Addr() string {
	return net.JoinHostPort(i.Host, fmt.Sprintf("%d", i.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Path == "" {
		config.Path = "/monitor"
	}
	if config.BrowseTimeout <= 0 {
		config.BrowseTimeout = 3 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:    config,
		ctx:       ctx,
		cancel:    cancel,
		instances: make(chan *Instance, 10),
	}
}

// Advertise announces the monitor endpoint via mDNS until Stop
func (m *Manager) Advertise() error {
	if m.config.Port <= 0 {
		return fmt.Errorf("invalid advertise port: %d", m.config.Port)
	}

	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		[]string{"path=" + m.config.Path},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.mu.Lock()
	m.server = server
	m.mu.Unlock()

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)
	return nil
}

// Browse searches for other renderers until Stop
func (m *Manager) Browse() {
	go m.browseLoop()
}

// browseLoop repeats mDNS queries and forwards every answer
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			close(m.instances)
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		forwarded := make(chan struct{})

		go func() {
			defer close(forwarded)
			for entry := range entries {
				inst := instanceFromEntry(entry)
				if inst == nil {
					continue
				}
				log.Printf("Discovered renderer: %s at %s", inst.Name, inst.Addr())

				select {
				case m.instances <- inst:
				case <-m.ctx.Done():
				}
			}
		}()

		params := mdns.DefaultParams(ServiceType)
		params.Entries = entries
		params.Timeout = m.config.BrowseTimeout
		params.DisableIPv6 = true

		if err := mdns.Query(params); err != nil {
			log.Printf("mDNS query failed: %v", err)
		}
		close(entries)
		<-forwarded
	}
}

// instanceFromEntry converts an mDNS answer, skipping entries without IPv4
func instanceFromEntry(entry *mdns.ServiceEntry) *Instance {
	if entry == nil || entry.AddrV4 == nil {
		return nil
	}

	inst := &Instance{
		Name: entry.Name,
		Host: entry.AddrV4.String(),
		Port: entry.Port,
		Path: "/monitor",
	}
	for _, field := range entry.InfoFields {
		if len(field) > 5 && field[:5] == "path=" {
			inst.Path = field[5:]
		}
	}
	return inst
}

// Instances returns the channel of discovered renderers. It is closed
// after Stop once browsing has finished.
func (m *Manager) Instances() <-chan *Instance {
	return m.instances
}

// Stop withdraws the advertisement and ends browsing
func (m *Manager) Stop() {
	m.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.server != nil {
		if err := m.server.Shutdown(); err != nil {
			log.Printf("mDNS shutdown failed: %v", err)
		}
		m.server = nil
	}
}

// getLocalIPs returns non-loopback IPv4 addresses of interfaces that are up
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
