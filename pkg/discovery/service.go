package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

const (
	DefaultServerType = "_media-transfer._tcp"
	DefaultDomain     = "local"
)

type ServiceInfo struct {
	Name   string // hostname or instance name
	Type   string // service name, e.g., "_media-transfer._tcp"
	Domain string // domain, e.g., "local"
	Addr   net.IP
	Port   int
	// Text holds the TXT record, e.g. the rpc path.
	Text map[string]string
}

// URL is the base URL of the media service behind the entry.
func (s ServiceInfo) URL() string {
	host := "localhost"
	if s.Addr != nil && !s.Addr.IsUnspecified() {
		host = s.Addr.String()
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, strconv.Itoa(s.Port)))
}

// DiscoveryResult contains either a snapshot of the services seen so far or an error
type DiscoveryResult struct {
	Services []ServiceInfo
	Error    error
}

type Adapter interface {
	Announce(ctx context.Context, service ServiceInfo) error
	Discover(ctx context.Context, service string) <-chan DiscoveryResult
}

// LookupFirst waits for the first announced instance of service.
func LookupFirst(ctx context.Context, adapter Adapter, service string) (ServiceInfo, error) {
	results := adapter.Discover(ctx, service)
	for {
		select {
		case <-ctx.Done():
			return ServiceInfo{}, fmt.Errorf("no %s found: %w", service, ctx.Err())
		case result, ok := <-results:
			if !ok {
				return ServiceInfo{}, fmt.Errorf("no %s found", service)
			}
			if result.Error != nil {
				return ServiceInfo{}, result.Error
			}
			if len(result.Services) > 0 {
				return result.Services[0], nil
			}
		}
	}
}

// ServiceName is the fully qualified name browsed for.
func ServiceName(serviceType, domain string) string {
	return fmt.Sprintf("%s.%s.", serviceType, domain)
}
