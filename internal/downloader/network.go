package downloader

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	probeHost    = "youtube.com"
	probeTimeout = 5 * time.Second
)

// NetworkProbe reports whether the video host is reachable.
type NetworkProbe interface {
	Probe(ctx context.Context) error
}

// ProbeFunc adapts a function to NetworkProbe.
type ProbeFunc func(ctx context.Context) error

func (f ProbeFunc) Probe(ctx context.Context) error { return f(ctx) }

// PingProbe sends one ICMP echo through the system ping binary and falls
// back to a TCP dial when ping is not installed.
type PingProbe struct {
	Host    string
	Timeout time.Duration
}

// NewPingProbe returns a probe for youtube.com with a 5s limit.
func NewPingProbe() *PingProbe {
	return &PingProbe{Host: probeHost, Timeout: probeTimeout}
}

func (p *PingProbe) Probe(ctx context.Context) error {
	host := p.Host
	if host == "" {
		host = probeHost
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = probeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	countFlag := "-c"
	if runtime.GOOS == "windows" {
		countFlag = "-n"
	}
	cmd := exec.CommandContext(ctx, "ping", countFlag, "1", host)
	err := cmd.Run()
	if err == nil {
		return nil
	}
	if !errors.Is(err, exec.ErrNotFound) {
		log.WithError(err).WithField("host", host).Debug("ping failed")
		return fmt.Errorf("%s is unreachable: %w", host, err)
	}

	log.WithField("host", host).Debug("ping not installed; dialing port 443")
	var dialer net.Dialer
	conn, derr := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, "443"))
	if derr != nil {
		return fmt.Errorf("%s is unreachable: %w", host, derr)
	}
	return conn.Close()
}
