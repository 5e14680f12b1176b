package printer

import (
	"errors"
	"fmt"

	"github.com/nixxel-company-limited/thermal-printer-bridge/bitmap"
	"github.com/nixxel-company-limited/thermal-printer-bridge/service"
)

// Kind classifies facade errors.
type Kind int

const (
	KindServiceUnavailable Kind = iota + 1
	KindCommunication
	KindDecode
	KindUnsupported
)

// Error kinds, usable with errors.Is.
var (
	ErrServiceUnavailable = errors.New("ServiceUnavailable")
	ErrCommunication      = errors.New("ServiceCommunicationError")
	ErrDecode             = errors.New("DecodeError")
	ErrUnsupportedFeature = errors.New("UnsupportedFeature")
)

// NotConnectedMessage is the message carried by ServiceUnavailable errors.
const NotConnectedMessage = "Printer Service is not Connected"

func (k Kind) sentinel() error {
	switch k {
	case KindServiceUnavailable:
		return ErrServiceUnavailable
	case KindCommunication:
		return ErrCommunication
	case KindDecode:
		return ErrDecode
	case KindUnsupported:
		return ErrUnsupportedFeature
	}
	return nil
}

// String returns the error kind name
func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by every failing facade operation.
type Error struct {
	Op      string
	Kind    Kind
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%d): %s", e.Op, e.Kind, e.Code, e.Message)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func notConnected(op string) error {
	return &Error{
		Op:      op,
		Kind:    KindServiceUnavailable,
		Code:    0,
		Message: NotConnectedMessage,
	}
}

// wrap normalizes a service error. Remote errors keep their code and
// message; anything else gets code 0.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	e := &Error{Op: op, Kind: KindCommunication, Message: err.Error(), Err: err}

	var remote *service.RemoteError
	if errors.As(err, &remote) {
		e.Code = remote.Code
		if remote.Message != "" {
			e.Message = remote.Message
		}
	}

	switch {
	case errors.Is(err, service.ErrUnsupported):
		e.Kind = KindUnsupported
	case errors.Is(err, bitmap.ErrDecode):
		e.Kind = KindDecode
	}
	return e
}

// KindOf returns the Kind of err, or 0 when err is not a facade error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
