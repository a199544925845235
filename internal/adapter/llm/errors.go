package llm

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ErrorKind classifies upstream failures for logging and metrics.
type ErrorKind string

const (
	ErrorKindDNS               ErrorKind = "dns"
	ErrorKindConnectionRefused ErrorKind = "connection_refused"
	ErrorKindTLS               ErrorKind = "tls"
	ErrorKindTimeout           ErrorKind = "timeout"
	ErrorKindCanceled          ErrorKind = "canceled"
	ErrorKindStatus            ErrorKind = "status"
	ErrorKindTransport         ErrorKind = "transport"
)

// UpstreamError is returned for every failure talking to the LLM endpoint.
type UpstreamError struct {
	Kind       ErrorKind
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Kind == ErrorKindStatus && e.Message != "":
		return fmt.Sprintf("LLM API error [%d]: %s", e.StatusCode, e.Message)
	case e.Kind == ErrorKindStatus:
		return fmt.Sprintf("LLM API error [%d]", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// WrapTransportError wraps err as an *UpstreamError with a classified kind.
// Errors that already are *UpstreamError are returned unchanged.
func WrapTransportError(op string, err error) error {
	if err == nil {
		return nil
	}
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return err
	}
	return &UpstreamError{Kind: classify(err), Op: op, Err: err}
}

// KindOf returns the kind of an upstream error, or "" if err is not one.
func KindOf(err error) ErrorKind {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.Kind
	}
	return ""
}

func classify(err error) ErrorKind {
	if errors.Is(err, context.Canceled) {
		return ErrorKindCanceled
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrorKindDNS
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return ErrorKindConnectionRefused
	}

	var (
		certErr      *tls.CertificateVerificationError
		recordErr    tls.RecordHeaderError
		alertErr     tls.AlertError
		authorityErr x509.UnknownAuthorityError
		hostErr      x509.HostnameError
	)
	if errors.As(err, &certErr) || errors.As(err, &recordErr) || errors.As(err, &alertErr) ||
		errors.As(err, &authorityErr) || errors.As(err, &hostErr) {
		return ErrorKindTLS
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorKindTimeout
	}
	return ErrorKindTransport
}
