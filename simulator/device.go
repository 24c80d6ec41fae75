package simulator

import (
	"io"

	"github.com/pkg/errors"
)

// Device is the minimal storage abstraction the simulator replays commands
// against. A real flash driver and the in-memory MemDevice below both
// satisfy it; the replay logic in Run is written against the interface so
// it is not coupled to either.
type Device interface {
	io.ReaderAt
	io.WriterAt
	Size() int64
}

// MemDevice is an in-memory Device, adapted from the teacher's MemDev: the
// same Seek/Read/Write-shaped abstraction, reshaped around ReaderAt/WriterAt
// since the simulator always knows the absolute offset of every access and
// never needs a persistent cursor.
type MemDevice struct {
	data []byte
}

// NewMemDevice returns a MemDevice of the given size, initialized from
// initial if provided (copied, not retained) or zero-filled otherwise.
func NewMemDevice(size int64, initial []byte) *MemDevice {
	data := make([]byte, size)
	if initial != nil {
		copy(data, initial)
	}
	return &MemDevice{data: data}
}

// WrapMemDevice returns a MemDevice backed directly by buf: reads and
// writes alias buf rather than a copy of it, so Run can mutate a caller's
// buffer in place.
func WrapMemDevice(buf []byte) *MemDevice {
	return &MemDevice{data: buf}
}

// Size returns the device's byte size.
func (d *MemDevice) Size() int64 {
	return int64(len(d.data))
}

// ReadAt implements io.ReaderAt.
func (d *MemDevice) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(d.data)) {
		return 0, errors.Errorf("invalid read offset: %d", off)
	}
	n := copy(p, d.data[off:])
	if n < len(p) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt.
func (d *MemDevice) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(d.data)) {
		return 0, errors.Errorf("invalid write offset: %d", off)
	}
	n := copy(d.data[off:], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Bytes returns the device's current contents. The returned slice aliases
// the device's internal buffer; callers that need a snapshot must copy it.
func (d *MemDevice) Bytes() []byte {
	return d.data
}
