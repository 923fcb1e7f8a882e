// Copyright 2026 The go-dcimg Authors
// SPDX-License-Identifier: MIT

package dcimg

import (
	"encoding/binary"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// byteSource is a random-access, little-endian reader over a single file,
// backed by a read-only memory mapping rather than repeated seek+read
// syscalls: DCIMG access is single-threaded, read-mostly, and jumps
// around a lot (header, footer, then back into frame data), which is
// exactly the pattern a mapped view serves well. It is the sole component
// that touches the OS file handle; everything above it works in terms of
// absolute and relative byte offsets.
//
// Note that this is not thread safe: a byteSource is owned by exactly one
// Reader (or one transiently opened companion file) at a time.
type byteSource struct {
	f    *os.File
	data mmap.MMap
	off  int64
	buf  [8]byte
}

func openByteSource(path string) (*byteSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newIOErrorf("open %s: %w", path, err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, newIOErrorf("mmap %s: %w", path, err)
	}
	return &byteSource{f: f, data: data}, nil
}

func (s *byteSource) close() error {
	if s.data != nil {
		if err := s.data.Unmap(); err != nil {
			return newIOErrorf("unmap: %w", err)
		}
		s.data = nil
	}
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	if err != nil {
		return newIOErrorf("close: %w", err)
	}
	return nil
}

func (s *byteSource) pos() (int64, error) {
	return s.off, nil
}

func (s *byteSource) seek(abs int64) error {
	if abs < 0 {
		return newIOErrorf("seek %d: negative offset", abs)
	}
	s.off = abs
	return nil
}

func (s *byteSource) skip(n int64) error {
	return s.seek(s.off + n)
}

// readInto reads exactly len(buf) bytes into buf from the mapped view,
// advancing the cursor. It fails the same way a short read off a plain
// file would: running past the end of the mapping is an IOError, not a
// panic.
func (s *byteSource) readInto(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	end := s.off + int64(len(buf))
	if s.off < 0 || end > int64(len(s.data)) {
		return newIOErrorf("read %d bytes at %d: past end of file (size %d)", len(buf), s.off, len(s.data))
	}
	copy(buf, s.data[s.off:end])
	s.off = end
	return nil
}

func (s *byteSource) readN(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := s.readInto(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *byteSource) readString(n int) (string, error) {
	b, err := s.readN(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readU32le returns an unsigned 32-bit value widened to the host's 64-bit
// domain so downstream offset/size arithmetic cannot truncate.
func (s *byteSource) readU32le() (uint64, error) {
	if err := s.readInto(s.buf[:4]); err != nil {
		return 0, err
	}
	return uint64(binary.LittleEndian.Uint32(s.buf[:4])), nil
}

func (s *byteSource) readI32le() (int64, error) {
	if err := s.readInto(s.buf[:4]); err != nil {
		return 0, err
	}
	return int64(int32(binary.LittleEndian.Uint32(s.buf[:4]))), nil
}

func (s *byteSource) readU64le() (uint64, error) {
	if err := s.readInto(s.buf[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(s.buf[:8]), nil
}

func (s *byteSource) readI64le() (int64, error) {
	v, err := s.readU64le()
	return int64(v), err
}

// preservePos runs f with the cursor restored to its entry position on
// return, regardless of what f does to the cursor or whether it errors.
func (s *byteSource) preservePos(f func() error) error {
	pos, err := s.pos()
	if err != nil {
		return err
	}
	ferr := f()
	if serr := s.seek(pos); serr != nil {
		if ferr != nil {
			return ferr
		}
		return serr
	}
	return ferr
}

// isDCIMGMagic reads len(magic) bytes from the current position and
// reports whether they equal the ASCII literal "DCIMG", restoring the
// original position before returning either way.
func isDCIMGMagic(s *byteSource) (bool, error) {
	var ok bool
	err := s.preservePos(func() error {
		b, err := s.readN(len(magic))
		if err != nil {
			return err
		}
		ok = string(b) == magic
		return nil
	})
	return ok, err
}
