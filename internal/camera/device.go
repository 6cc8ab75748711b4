package camera

import "errors"

var (
	ErrReadFailed = errors.New("camera read failed")
	ErrEmptyFrame = errors.New("camera returned an empty frame")
)

// Device yields one frame per Read call. Read blocks for at most one frame
// interval of the underlying driver.
type Device interface {
	Read() (*Frame, error)
	Close() error
}
