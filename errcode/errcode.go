package errcode

import "strconv"

// Code is a stable, log-facing fault identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Sensor faults.
	TransientRead Code = "transient_read"
	NoData        Code = "no_data"

	// Connectivity faults.
	AssociationTimeout Code = "association_timeout"

	// Upload faults.
	NotConnected Code = "not_connected"
	Rejected     Code = "rejected"
	Transport    Code = "transport"

	// Anything that must reach the supervisor.
	Fatal Code = "fatal"

	InvalidConfig Code = "invalid_config"

	Error Code = "error" // generic fallback
)

// E keeps context, an optional HTTP status and a cause alongside a Code.
type E struct {
	C      Code
	Op     string
	Status int
	Err    error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Status != 0 {
		s += " (status " + strconv.Itoa(e.Status) + ")"
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.Rejected) match a wrapped *E.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap builds an *E for op with the given cause.
func Wrap(c Code, op string, err error) error {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		if inner := u.Unwrap(); inner != nil {
			return Of(inner)
		}
	}
	return Error
}

// StatusOf returns the HTTP status carried by an upload rejection, or 0.
func StatusOf(err error) int {
	for err != nil {
		if e, ok := err.(*E); ok && e.Status != 0 {
			return e.Status
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0
		}
		err = u.Unwrap()
	}
	return 0
}
