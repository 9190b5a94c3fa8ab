package email

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"os"
	"strings"
	"syscall"
)

var ErrNotConfigured = errors.New("email service not configured, configure email settings first")

// DeliveryError carries an operator-facing explanation of an SMTP failure.
type DeliveryError struct {
	Message string
	Err     error
}

func (e *DeliveryError) Error() string {
	return e.Message
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func Classify(err error, cfg Config) error {
	if err == nil {
		return nil
	}
	var already *DeliveryError
	if errors.As(err, &already) {
		return err
	}

	var dnsErr *net.DNSError
	var protoErr *textproto.Error
	switch {
	case errors.As(err, &dnsErr) && !dnsErr.IsTimeout:
		return &DeliveryError{Message: fmt.Sprintf("Cannot resolve SMTP host %q. Please check the hostname.", cfg.Host), Err: err}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &DeliveryError{Message: fmt.Sprintf("Connection refused to %s:%d. Check host and port.", cfg.Host, cfg.Port), Err: err}
	case isTimeout(err):
		return &DeliveryError{Message: fmt.Sprintf("Connection timeout to %s:%d. Check firewall/network.", cfg.Host, cfg.Port), Err: err}
	case errors.As(err, &protoErr) && protoErr.Code == 535,
		strings.Contains(strings.ToLower(err.Error()), "authentication failed"):
		return &DeliveryError{Message: "Authentication failed. Check username and password. For Gmail, use an App Password instead of your regular password.", Err: err}
	}
	return &DeliveryError{Message: fmt.Sprintf("Email delivery failed: %v", err), Err: err}
}

// IsTransient reports whether a send may succeed if attempted again unchanged.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code >= 400 && protoErr.Code < 500
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTimeout || dnsErr.IsTemporary
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	return isTimeout(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
