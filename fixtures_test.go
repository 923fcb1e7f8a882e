// Copyright 2026 The go-dcimg Authors
// SPDX-License-Identifier: MIT

package dcimg_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

// buf is a small growable byte-buffer builder used to assemble synthetic
// DCIMG fixtures at exact field offsets.
type buf struct {
	b []byte
}

func newBuf(size int) *buf {
	return &buf{b: make([]byte, size)}
}

func (w *buf) grow(size int) {
	if len(w.b) < size {
		b := make([]byte, size)
		copy(b, w.b)
		w.b = b
	}
}

func (w *buf) putU32(off int, v uint32) {
	w.grow(off + 4)
	binary.LittleEndian.PutUint32(w.b[off:], v)
}

func (w *buf) putI32(off int, v int32) {
	w.putU32(off, uint32(v))
}

func (w *buf) putU64(off int, v uint64) {
	w.grow(off + 8)
	binary.LittleEndian.PutUint64(w.b[off:], v)
}

func (w *buf) putI64(off int, v int64) {
	w.putU64(off, uint64(v))
}

func (w *buf) putBytes(off int, data []byte) {
	w.grow(off + len(data))
	copy(w.b[off:], data)
}

const (
	rawVersionV0 = 0x7
	rawVersionV1 = 0x1000000

	pixelTypeU8  = 0x1
	pixelTypeU16 = 0x2

	headerSize = 80 // fixed for every fixture built here
)

// putGlobalPrefix writes the 80-byte global prefix shared by both header
// versions: magic, version, headerSize, and the fileSize/fileSize2 pair.
func (w *buf) putGlobalPrefix(version uint32, fileSize uint32) {
	w.putBytes(0, []byte("DCIMG"))
	w.putU32(8, version)
	w.putU32(32, headerSize)
	w.putU32(40, fileSize)
	w.putU32(56, fileSize)
	w.putU32(76, 1024) // observed constant, unused by the reader
}

// v0Fixture holds the layout decisions for a synthetic V0 file so tests
// can compute expected byte positions without re-deriving them.
type v0Fixture struct {
	sizeX, sizeY, sizeT int
	pixelType           uint32
	byteFactor          int
	dataOffset          int
	footerOffset        int // relative to headerSize
	hasPatch            bool
	patchOffsetInFrame  uint32 // only meaningful when hasPatch
	patchBytes          []byte // 4 pixels worth, only when hasPatch
	frames              [][]byte
}

// build assembles the full byte slice for a V0 fixture; its length is
// written as both fileSize and fileSize2.
func (f v0Fixture) build() []byte {
	bytesPerImage := f.sizeX * f.sizeY * f.byteFactor
	dataStart := headerSize + f.dataOffset

	footerOffset := f.footerOffset
	if footerOffset == 0 {
		// Place the footer right after all frame data by default; the
		// footer can never legitimately start at byte 0 of the session
		// header, so an unset field is unambiguous.
		footerOffset = f.dataOffset + bytesPerImage*f.sizeT
	}
	footerStart := headerSize + footerOffset
	secondFooterRel := 16
	secondFooterStart := footerStart + secondFooterRel
	patchDataOffset := 512 // relative to footerStart; far past any fixed fields

	totalSize := footerStart + patchDataOffset + len(f.patchBytes) + 16
	if totalSize < dataStart+bytesPerImage*f.sizeT {
		totalSize = dataStart + bytesPerImage*f.sizeT
	}

	w := newBuf(totalSize)
	w.putGlobalPrefix(rawVersionV0, uint32(totalSize))

	// Session header.
	w.putI32(headerSize+32, int32(f.sizeT))
	w.putI32(headerSize+36, int32(f.pixelType))
	w.putI32(headerSize+44, int32(f.sizeX))
	w.putU32(headerSize+48, uint32(f.sizeX*f.byteFactor)) // bytesPerRow
	w.putI32(headerSize+52, int32(f.sizeY))
	w.putU32(headerSize+56, uint32(bytesPerImage))
	w.putI32(headerSize+68, int32(f.dataOffset))
	w.putI64(headerSize+72, int64(footerOffset))

	// Footer, first hop.
	w.putU32(footerStart, rawVersionV0)
	w.putI64(footerStart+8, int64(secondFooterRel))

	// Footer, second hop.
	var fourPixelSize int64
	if f.hasPatch {
		fourPixelSize = int64(len(f.patchBytes))
	}
	w.putI64(secondFooterStart+88, int64(patchDataOffset))
	w.putU32(secondFooterStart+100, f.patchOffsetInFrame)
	w.putI64(secondFooterStart+104, fourPixelSize)

	if f.hasPatch {
		w.putBytes(footerStart+patchDataOffset, f.patchBytes)
	}

	// Pixel data, one frame at a time.
	for t, frame := range f.frames {
		w.putBytes(dataStart+t*bytesPerImage, frame)
	}

	return w.b
}

// v1Fixture mirrors v0Fixture for the modern header layout.
type v1Fixture struct {
	sizeX, sizeY, sizeT int
	pixelType           uint32
	byteFactor          int
	dataOffset          int64
	frameFooterSize     uint32
	frames              [][]byte
}

func (f v1Fixture) build() []byte {
	bytesPerImage := f.sizeX * f.sizeY * f.byteFactor
	dataStart := headerSize + int(f.dataOffset)
	// Leave room after the frames for the per-frame trailer, which is
	// where the V1 patch pixels are read from when frameFooterSize marks
	// the patch present.
	totalSize := dataStart + bytesPerImage*f.sizeT + int(f.frameFooterSize)

	w := newBuf(totalSize)
	w.putGlobalPrefix(rawVersionV1, uint32(totalSize))

	w.putI32(headerSize+60, int32(f.sizeT))
	w.putI32(headerSize+64, int32(f.pixelType))
	w.putI32(headerSize+72, int32(f.sizeX))
	w.putI32(headerSize+76, int32(f.sizeY))
	w.putU32(headerSize+84, uint32(bytesPerImage))
	w.putI64(headerSize+96, f.dataOffset)
	w.putU32(headerSize+124, f.frameFooterSize)

	for t, frame := range f.frames {
		w.putBytes(dataStart+t*bytesPerImage, frame)
	}

	return w.b
}

// writeFixture writes data to a new file named name inside dir (creating
// dir if needed) and returns the full path.
func writeFixture(c *qt.C, dir, name string, data []byte) string {
	c.Helper()
	if dir == "" {
		dir = c.TempDir()
	} else {
		c.Assert(os.MkdirAll(dir, 0o755), qt.IsNil)
	}
	path := filepath.Join(dir, name)
	c.Assert(os.WriteFile(path, data, 0o644), qt.IsNil)
	return path
}

// columnMajorFrame builds the column-major byte layout for a sizeX x
// sizeY frame of the given byte factor, filling it with sequential values
// so individual pixels are easy to identify in assertions. Each of the
// byteFactor bytes of row r, column c holds the value base+r*sizeX+c
// (mod 256).
func columnMajorFrame(t *testing.T, sizeX, sizeY, byteFactor int, base byte) []byte {
	t.Helper()
	out := make([]byte, sizeX*sizeY*byteFactor)
	v := base
	for i := range sizeX * sizeY {
		for b := 0; b < byteFactor; b++ {
			out[i*byteFactor+b] = v
		}
		v++
	}
	return out
}
