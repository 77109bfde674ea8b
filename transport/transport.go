// Package transport holds what every server in the application shares.
package transport

import (
	"context"
	"net"

	"github.com/kochabx/curvebox/core/validator"
	"github.com/kochabx/curvebox/errors"
)

// Server is run by app.Application until the application shuts down.
type Server interface {
	// Run blocks until the server stops. http.ErrServerClosed is not a failure.
	Run() error
	Shutdown(context.Context) error
}

// ValidateAddress checks a listen address of the form host:port. The host may
// be empty, an IP literal or an RFC 1123 host name; the port must be 1..65535.
func ValidateAddress(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return errors.BadRequest("invalid listen address %q", addr).WithCause(err)
	}
	// hostname_port does not know IPv6 literals
	if net.ParseIP(host) != nil {
		addr = net.JoinHostPort("", port)
	}
	if err := validator.Validate.Var(addr, "hostname_port"); err != nil {
		return errors.BadRequest("invalid listen address %q", addr).WithCause(err)
	}
	return nil
}
