// ABOUTME: Version and product identity constants
// ABOUTME: Reported by the CLI, the status view and the monitor endpoint
package version

const (
	Version      = "0.3.0"
	Product      = "livepaper"
	Manufacturer = "livepaper project"
)
