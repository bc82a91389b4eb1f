package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantEndpoint string
	}{
		{
			name: "prediction service with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "claims-gpu-1"},
				HostName:      "claims-gpu-1.local.",
				Port:          5000,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
				Text:          []string{"path=/Predict_Sentiment", "model=biobert"},
			},
			wantEndpoint: "http://192.168.1.20:5000/Predict_Sentiment",
		},
		{
			name: "trailing slash and case are tolerated",
			entry: &zeroconf.ServiceEntry{
				HostName: "lab.local.",
				Port:     8080,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
				Text:     []string{"path=/predict_sentiment/"},
			},
			wantEndpoint: "http://10.0.0.5:8080/predict_sentiment/",
		},
		{
			name: "no port defaults to 80",
			entry: &zeroconf.ServiceEntry{
				HostName: "lab.local.",
				AddrIPv4: []net.IP{net.ParseIP("172.16.0.1")},
				Text:     []string{"path=/Predict_Sentiment"},
			},
			wantEndpoint: "http://172.16.0.1:80/Predict_Sentiment",
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				HostName: "lab.local.",
				Port:     5000,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
				Text:     []string{"path=/Predict_Sentiment"},
			},
			wantEndpoint: "http://[fe80::1]:5000/Predict_Sentiment",
		},
		{
			name: "other HTTP service",
			entry: &zeroconf.ServiceEntry{
				HostName: "printer.local.",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.2")},
				Text:     []string{"path=/"},
			},
			wantNil: true,
		},
		{
			name: "no TXT records",
			entry: &zeroconf.ServiceEntry{
				HostName: "nas.local.",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.3")},
			},
			wantNil: true,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				HostName: "lab.local.",
				Port:     5000,
				Text:     []string{"path=/Predict_Sentiment"},
			},
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := scanner.parseServiceEntry(tt.entry)
			if tt.wantNil {
				if svc != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", svc)
				}
				return
			}
			if svc == nil {
				t.Fatal("parseServiceEntry() = nil, want service")
			}
			if got := svc.Endpoint(); got != tt.wantEndpoint {
				t.Errorf("Endpoint() = %q, want %q", got, tt.wantEndpoint)
			}
			if svc.DiscoveredAt.IsZero() {
				t.Error("DiscoveredAt not set")
			}
		})
	}
}

func TestScanner_CustomPath(t *testing.T) {
	scanner := NewScanner()
	scanner.Path = "/predict"

	entry := &zeroconf.ServiceEntry{
		HostName: "lab.local.",
		Port:     5000,
		AddrIPv4: []net.IP{net.ParseIP("10.0.0.9")},
		Text:     []string{"path=/Predict_Sentiment"},
	}
	if svc := scanner.parseServiceEntry(entry); svc != nil {
		t.Errorf("default path matched a custom scanner: %v", svc)
	}

	entry.Text = []string{"path=/predict"}
	if svc := scanner.parseServiceEntry(entry); svc == nil {
		t.Error("custom path not matched")
	}
}

func TestParseTXT(t *testing.T) {
	got := parseTXT([]string{"path=/Predict_Sentiment", "flag", "eq=a=b"})

	want := map[string]string{"path": "/Predict_Sentiment", "flag": "", "eq": "a=b"}
	if len(got) != len(want) {
		t.Fatalf("parseTXT() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("parseTXT()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestService_Metadata(t *testing.T) {
	svc := &Service{Instance: "lab", Hostname: "lab.local.", IP: "10.0.0.1", Port: 5000, Path: PredictPath,
		Metadata: map[string]string{"model": "biobert"}}

	if got := svc.GetMetadata("model"); got != "biobert" {
		t.Errorf("GetMetadata(model) = %q", got)
	}
	if got := svc.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q", got)
	}
	if got := (&Service{}).GetMetadata("x"); got != "" {
		t.Errorf("nil metadata GetMetadata = %q", got)
	}
	if got := svc.String(); got != "lab (lab.local.) at http://10.0.0.1:5000/Predict_Sentiment" {
		t.Errorf("String() = %q", got)
	}
}

func TestScanner_watchFirst(t *testing.T) {
	scanner := NewScanner()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Service, 1)
	done := make(chan struct{})
	go func() {
		scanner.watchFirst(ctx, entries, found, cancel)
		close(done)
	}()

	entries <- &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "printer"},
		Port:          631,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.1.9")},
		Text:          []string{"path=/ipp"},
	}
	entries <- &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "claims-1"},
		Port:          5000,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
		Text:          []string{"path=/Predict_Sentiment"},
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watchFirst did not return after a match")
	}

	svc := <-found
	if svc.Instance != "claims-1" {
		t.Errorf("Instance = %q, want claims-1", svc.Instance)
	}
	if ctx.Err() == nil {
		t.Error("watchFirst should stop the browse after a match")
	}
}

func TestScanner_watchFirstStopsOnContext(t *testing.T) {
	scanner := NewScanner()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	found := make(chan *Service, 1)
	scanner.watchFirst(ctx, make(chan *zeroconf.ServiceEntry), found, func() {})

	if len(found) != 0 {
		t.Error("nothing should be found after cancellation")
	}
}
