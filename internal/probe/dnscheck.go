package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

const (
	DNSResolves    = "RESOLVES"
	DNSNXDomain    = "NXDOMAIN"
	DNSNoARecord   = "NO_A_RECORD"
	DNSServFail    = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName = "INVALID_NAME"
)

type DNSStatus struct {
	Domain        string
	IPs           []net.IP
	HasNS         bool
	Class         string
	ResolverError string
}

var dnsTimeout = 3 * time.Second

// CheckDNS classifies why a host may be unreachable. host may carry a port.
func CheckDNS(ctx context.Context, host string) DNSStatus {
	name := strings.TrimSpace(host)
	if name == "" || strings.Contains(name, "://") {
		return DNSStatus{Domain: name, Class: DNSInvalidName}
	}
	if h, _, err := net.SplitHostPort(name); err == nil {
		name = h
	}
	s := DNSStatus{Domain: name}
	if name == "" {
		s.Class = DNSInvalidName
		return s
	}
	if ip := net.ParseIP(name); ip != nil {
		s.IPs = []net.IP{ip}
		s.Class = DNSResolves
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()
	r := &net.Resolver{}

	ips, err := r.LookupIP(ctx, "ip", name)
	if err == nil && len(ips) > 0 {
		s.IPs = ips
		s.Class = DNSResolves
		return s
	}
	if err != nil {
		s.ResolverError = err.Error()
		var de *net.DNSError
		if errors.As(err, &de) {
			switch {
			case de.IsNotFound:
				s.Class = DNSNXDomain
			case de.IsTemporary || de.Timeout():
				s.Class = DNSServFail
			}
		}
	}

	if ns, err := r.LookupNS(ctx, name); err == nil && len(ns) > 0 {
		s.HasNS = true
		if s.Class == DNSNXDomain || s.Class == "" {
			s.Class = DNSNoARecord
		}
	}

	if s.Class == "" {
		if s.ResolverError != "" {
			s.Class = DNSServFail
		} else {
			s.Class = DNSNXDomain
		}
	}
	return s
}
