package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/claimsense/claimsense/internal/logging"
)

const (
	// ServiceType is the mDNS service type prediction services advertise
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."

	// PredictPath is the TXT "path" value that marks a prediction service
	PredictPath = "/Predict_Sentiment"

	// DefaultScanTimeout is the default browse duration
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is used when an entry carries no port
	DefaultPort = 80
)

// Scanner browses for prediction services
type Scanner struct {
	// Timeout is how long to listen for answers
	Timeout time.Duration

	// Path is the TXT path a service must advertise
	Path string
}

// NewScanner creates a scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		Path:    PredictPath,
	}
}

// Scan browses until the timeout and returns every prediction service
// seen, one per endpoint, in discovery order.
func (s *Scanner) Scan(ctx context.Context) ([]*Service, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		services []*Service
		seen     = make(map[string]bool)
		mu       sync.Mutex
	)

	go func() {
		for entry := range entries {
			svc := s.parseServiceEntry(entry)
			if svc == nil {
				continue
			}
			mu.Lock()
			if !seen[svc.Endpoint()] {
				seen[svc.Endpoint()] = true
				services = append(services, svc)
				logging.Debug("Found prediction service", zap.String("endpoint", svc.Endpoint()))
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return append([]*Service(nil), services...), nil
}

// ErrNoService is returned by WaitForService when the timeout passes
// without a match.
var ErrNoService = errors.New("no prediction service found")

// WaitForService returns the first prediction service that answers,
// without waiting out the rest of the timeout.
func (s *Scanner) WaitForService(parent context.Context) (*Service, error) {
	ctx, cancel := context.WithTimeout(parent, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Service, 1)
	go s.watchFirst(ctx, entries, found, cancel)

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	select {
	case svc := <-found:
		return svc, nil
	default:
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w within %s", ErrNoService, s.Timeout)
}

// watchFirst sends the first matching entry to found and calls stop. It
// returns once a service is found or ctx is done.
func (s *Scanner) watchFirst(ctx context.Context, entries <-chan *zeroconf.ServiceEntry, found chan<- *Service, stop context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if svc := s.parseServiceEntry(entry); svc != nil {
				found <- svc
				stop()
				return
			}
		}
	}
}

// parseServiceEntry converts an entry into a Service. It returns nil for
// entries that do not advertise the prediction path or have no address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Service {
	if entry == nil {
		return nil
	}

	metadata := parseTXT(entry.Text)
	path, ok := metadata["path"]
	if !ok || !strings.EqualFold(strings.TrimRight(path, "/"), strings.TrimRight(s.Path, "/")) {
		return nil
	}

	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Service{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Path:         path,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// parseTXT splits "key=value" records. A key without "=" maps to "".
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}
	return metadata
}

// ScanForServices scans with a custom timeout
func ScanForServices(ctx context.Context, timeout time.Duration) ([]*Service, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.Scan(ctx)
}

// Advertise announces the websocket bridge on the local network so browser
// front ends can find it. The returned function withdraws it.
func Advertise(instance string, port int, text ...string) (func(), error) {
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, append([]string{"path=/ws"}, text...), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to advertise %s: %w", instance, err)
	}
	logging.Info("Advertising bridge over mDNS",
		zap.String("instance", instance),
		zap.Int("port", port),
	)
	return server.Shutdown, nil
}
