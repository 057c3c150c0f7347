package fat32

import (
	"fmt"
	"syscall"
)

// DriverError is a wrapper around a POSIX errno code, with an optional
// customizable message and an optional wrapped cause. It implements the
// `errors.Is`/`errors.Unwrap` protocol so callers can test against both a
// specific errno (via another *DriverError) and the original underlying
// error that triggered it.
type DriverError struct {
	ErrnoCode syscall.Errno
	message   string
	parent    error
}

// Error implements the `error` interface.
func (e *DriverError) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.ErrnoCode.Error()
}

// Unwrap returns the error that caused this one, if any. Used by
// `errors.Is`/`errors.As`.
func (e *DriverError) Unwrap() error {
	return e.parent
}

// Is reports whether `target` is a *DriverError with the same errno code,
// so sentinel errors declared in this package (e.g. ErrNotFound) can be
// matched with `errors.Is` even after `WithMessage`/`Wrap` has cloned them.
func (e *DriverError) Is(target error) bool {
	other, ok := target.(*DriverError)
	if !ok {
		return false
	}
	return e.ErrnoCode == other.ErrnoCode
}

func combineMessages(base, suffix string) string {
	if base == "" {
		return suffix
	}
	return fmt.Sprintf("%s: %s", base, suffix)
}

// WithMessage returns a copy of e with `message` appended to its existing
// message (or set as the message, if e had none).
func (e *DriverError) WithMessage(message string) *DriverError {
	clone := *e
	clone.message = combineMessages(e.message, message)
	return &clone
}

// Wrap returns a copy of e that chains to `cause`: `errors.Is(result, cause)`
// and `errors.Is(result, e)` both hold, and the error message has `cause`'s
// message appended.
func (e *DriverError) Wrap(cause error) *DriverError {
	clone := *e
	clone.parent = cause
	clone.message = combineMessages(e.message, cause.Error())
	return &clone
}

// NewDriverError creates a new DriverError with a default message derived
// from the system's error code.
func NewDriverError(errnoCode syscall.Errno) *DriverError {
	return &DriverError{ErrnoCode: errnoCode}
}

// NewDriverErrorWithMessage creates a new DriverError from a system error
// code with a custom message.
func NewDriverErrorWithMessage(errnoCode syscall.Errno, message string) *DriverError {
	return &DriverError{ErrnoCode: errnoCode, message: message}
}

// Sentinel errors for the conditions spec.md §7 names. Use errors.Is to test
// against these; WithMessage/Wrap return clones that still satisfy Is.
var (
	// ErrNotFound indicates a lookup miss: a path component, file, or
	// directory entry does not exist.
	ErrNotFound = NewDriverErrorWithMessage(syscall.ENOENT, "not found")

	// ErrInvalidInput indicates API misuse: a non-absolute path, a
	// non-normal path component ('.', '..', a prefix), or a name containing
	// invalid UTF-8.
	ErrInvalidInput = NewDriverErrorWithMessage(syscall.EINVAL, "invalid input")

	// ErrNotDirectory is returned when FS.ReadDir is given an
	// already-resolved file entry, and also when FS.Open or FS.OpenEntry is
	// given a directory. A non-terminal path component that
	// resolves to a file during path walking is ErrInvalidInput instead, per
	// spec.md §4.4.
	ErrNotDirectory = NewDriverErrorWithMessage(syscall.ENOTDIR, "not a directory")

	// ErrBadSector indicates Status.Bad was encountered for a cluster that
	// was about to be read, or that reading a sector failed or came up short.
	ErrBadSector = NewDriverErrorWithMessage(syscall.EIO, "cluster contains bad sector(s)")

	// ErrCorrupt indicates a structural violation of the on-disk format that
	// cannot be recovered from: a reserved or free cluster found mid-chain,
	// a cluster index out of range, or a malformed boot sector.
	ErrCorrupt = NewDriverErrorWithMessage(syscall.EINVAL, "corrupt file system structure")

	// ErrUnsupported indicates an operation this read-only driver never
	// implements: write, seek, sync.
	ErrUnsupported = NewDriverErrorWithMessage(syscall.ENOTSUP, "operation not supported")

	// ErrBadSignature indicates an MBR or BPB sector is missing its 0xAA55
	// signature.
	ErrBadSignature = NewDriverErrorWithMessage(syscall.EINVAL, "bad boot sector signature")
)

// UnknownBootIndicatorError reports that partition table entry `Index` in
// the MBR has a boot indicator byte that is neither 0x00 nor 0x80.
type UnknownBootIndicatorError struct {
	Index int
	Value byte
}

func (e *UnknownBootIndicatorError) Error() string {
	return fmt.Sprintf(
		"partition %d: unknown boot indicator 0x%02x", e.Index, e.Value)
}
