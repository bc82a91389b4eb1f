package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Service is a prediction service found on the network
type Service struct {
	// Instance is the advertised instance name (e.g., "claims-gpu-1")
	Instance string

	// Hostname is the mDNS hostname (e.g., "claims-gpu-1.local.")
	Hostname string

	// IP is the address to reach it, IPv4 preferred
	IP string

	// Port is the HTTP port
	Port int

	// Path is the prediction route from the TXT records
	Path string

	// Metadata holds every TXT record
	Metadata map[string]string

	// DiscoveredAt is when the service answered
	DiscoveredAt time.Time
}

// Endpoint returns the URL to put in the endpoint preference
func (s *Service) Endpoint() string {
	return "http://" + net.JoinHostPort(s.IP, strconv.Itoa(s.Port)) + s.Path
}

// String returns a human-readable description
func (s *Service) String() string {
	return fmt.Sprintf("%s (%s) at %s", s.Instance, s.Hostname, s.Endpoint())
}

// GetMetadata returns a TXT value, or "" if absent
func (s *Service) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}
