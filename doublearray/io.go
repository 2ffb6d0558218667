package doublearray

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// The on-disk image is the unit array verbatim: a raw sequence of 32-bit
// little-endian words with no header or trailer. The byte length is always
// a multiple of 4.

var (
	ErrEmptyDictionary = errors.New("empty dictionary")
	ErrInvalidImage    = errors.New("image size is not a multiple of the unit size")
)

// Open reads a dictionary image from path. size bytes are read starting at
// offset; size 0 means the remainder of the file. The loaded buffer is
// owned by the reader.
func (d *DoubleArray) Open(path string, offset, size int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if size == 0 {
		st, err := f.Stat()
		if err != nil {
			return err
		}
		size = st.Size() - offset
	}
	if size < 0 || size%4 != 0 {
		return fmt.Errorf("open %s: %d bytes at offset %d: %w",
			path, size, offset, ErrInvalidImage)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(f, offset, size), buf); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	units := make([]Unit, size/4)
	for i := range units {
		units[i] = Unit(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	d.units = units
	return nil
}

// Save writes the unit array to path, replacing any existing file.
func (d *DoubleArray) Save(path string) error {
	if d.Size() == 0 {
		return fmt.Errorf("save %s: %w", path, ErrEmptyDictionary)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.write(f); err != nil {
		f.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	return f.Close()
}

func (d *DoubleArray) write(w io.Writer) error {
	buf := make([]byte, 0, 4*len(d.units))
	for _, u := range d.units {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(u))
	}
	_, err := w.Write(buf)
	return err
}
