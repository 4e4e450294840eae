package server

import (
	"fmt"
	"io"
	"net"
	"strconv"
)

const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 5000
)

// ServerOptions struct to hold server configuration
type ServerOptions struct {
	Host string
	Port int
	// Debug turns on detailed fault responses. Never enable it on a public address.
	Debug       bool
	UseNgrok    bool
	NgrokDomain string
	// Stdout receives the per-request diagnostic line. Nil means os.Stdout.
	Stdout io.Writer
}

// NewServerOptions builds options from environment values (process env merged with .env),
// falling back to the defaults for anything unset.
func NewServerOptions(env map[string]string) (ServerOptions, error) {
	opts := ServerOptions{
		Host: DefaultHost,
		Port: DefaultPort,
	}

	if host := env["GREETER_HOST"]; host != "" {
		opts.Host = host
	}
	if port := env["GREETER_PORT"]; port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return opts, fmt.Errorf("GREETER_PORT %q: %w", port, err)
		}
		opts.Port = p
	}
	if debug := env["GREETER_DEBUG"]; debug != "" {
		d, err := strconv.ParseBool(debug)
		if err != nil {
			return opts, fmt.Errorf("GREETER_DEBUG %q: %w", debug, err)
		}
		opts.Debug = d
	}

	ngrokDomain, useNgrok := env["NGROK_DOMAIN"]
	if ngrokDomain == "" {
		useNgrok = false
	}
	if env["NGROK_ENABLED"] != "true" {
		useNgrok = false
	}
	opts.UseNgrok = useNgrok
	opts.NgrokDomain = ngrokDomain

	return opts, opts.Validate()
}

func (o ServerOptions) Validate() error {
	if o.Port < 0 || o.Port > 65535 {
		return fmt.Errorf("%w: got %d", ErrInvalidPort, o.Port)
	}
	if o.UseNgrok && o.Debug {
		return ErrTunnelInDebug
	}
	return nil
}

// Addr is the host:port the server binds to.
func (o ServerOptions) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}
