// Copyright 2026 The go-dcimg Authors
// SPDX-License-Identifier: MIT

// Package dcimg decodes the Hamamatsu DCIMG image-container format: a
// binary file format used by scientific CMOS cameras to store multi-frame,
// optionally multi-volume, grayscale image stacks.
//
// A Reader gives random access to individual 2D image planes as raw pixel
// byte buffers, handling the format's two incompatible header layouts, its
// column-major-to-row-major transpose, and its four-pixel correction
// splice. It does not write DCIMG files, decode timestamp/counter
// footers, or support pixel types beyond 8/16-bit monochrome.
//
// A Reader is not thread safe: a single logical owner must serialize calls
// against one instance. Concurrent readers may operate on distinct
// instances of the same or different files.
package dcimg

import (
	"io"
	"path/filepath"
)

// Geometry describes the fixed shape and pixel type of a DCIMG reader's
// image planes. It is immutable once returned by Open.
type Geometry struct {
	// Version is the DCIMG header layout in use.
	Version Version
	// SizeX, SizeY are the pixel dimensions of a single frame.
	SizeX, SizeY int
	// SizeT is the number of frames per file (timepoints).
	SizeT int
	// SizeZ is the number of files in the companion group; 1 when
	// grouping is disabled.
	SizeZ int
	// SizeC is always 1: DCIMG is grayscale-only.
	SizeC int
	// PixelType is U8 or U16.
	PixelType PixelType
	// LittleEndian is always true.
	LittleEndian bool
	// DimensionOrder is always "XYZCT".
	DimensionOrder string
}

// layoutRecord holds the byte offsets derived during header parsing that
// are needed to locate frame data and the four-pixel patch.
type layoutRecord struct {
	headerSize      int64
	dataOffset      int64
	bytesPerRow     int64 // V0 only
	bytesPerImage   int64
	offsetToFooter  int64 // V0 only
	frameFooterSize int64 // V1 only
}

// patchRecord describes the four-pixel correction, if any.
type patchRecord struct {
	present        bool
	row            int
	absoluteOffset int64
}

// Options configures Open.
type Options struct {
	// GroupFiles enables companion-file discovery: siblings in the same
	// directory that pass the magic check are grouped as additional
	// Z-slices. When false, the reader sees only the single opened file.
	GroupFiles bool

	// Warnf receives non-fatal warnings (a newer-than-tested version, a
	// companion file that failed its magic check). A nil Warnf discards
	// warnings.
	Warnf func(format string, args ...any)

	// PatchRowOverride, if set, is consulted after the default patch-row
	// heuristic has been computed; returning ok==true replaces the
	// computed row. Primarily useful for V1 files, where the default
	// heuristic is an approximation: V1 carries no footer chain pointing
	// at the patch row the way V0 does, so it is derived from geometry
	// alone.
	PatchRowOverride func(g Geometry) (row int, ok bool)
}

type state int

const (
	stateUnopened state = iota
	stateReady
	stateClosed
)

// Reader provides random access to the image planes of a DCIMG file (and,
// when grouping is enabled, its companion siblings). Construct one with
// Open; release its resources with Close.
type Reader struct {
	state state

	primaryPath  string
	primaryIndex int
	companions   []string
	primarySrc   *byteSource

	geometry Geometry
	layout   layoutRecord
	patch    patchRecord
	comment  string

	opts Options
}

// Open parses path's header (and, for V0 files, its footer) and, when
// opts.GroupFiles is set, enumerates companion siblings establishing the
// Z axis. On success the returned Reader is in the Ready state and may
// service any number of ReadPlane calls until Close.
func Open(path string, opts Options) (*Reader, error) {
	if opts.Warnf == nil {
		opts.Warnf = func(string, ...any) {}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, newIOErrorf("resolve path %s: %w", path, err)
	}

	src, err := openByteSource(absPath)
	if err != nil {
		return nil, err
	}
	ok, err := isDCIMGMagic(src)
	if err != nil {
		_ = src.close()
		return nil, err
	}
	if !ok {
		_ = src.close()
		return nil, newFormatErrorf("missing DCIMG magic in %s", absPath)
	}

	geom, lay, err := parseHeader(src, opts.Warnf)
	if err != nil {
		_ = src.close()
		return nil, err
	}

	var pat patchRecord
	var comment string
	if geom.Version == VersionV0 {
		pat, comment, err = parseFooterV0(src, lay, geom, opts.Warnf)
		if err != nil {
			_ = src.close()
			return nil, err
		}
	} else {
		pat = computePatchV1(lay, geom)
		comment = readCommentArea(src, lay.headerSize+v1CommentOffset)
	}

	if opts.PatchRowOverride != nil {
		if row, ok := opts.PatchRowOverride(geom); ok {
			pat.row = row
		}
	}

	if pat.present && pat.row >= geom.SizeY {
		_ = src.close()
		return nil, newFormatErrorf("patch row %d out of bounds for sizeY %d", pat.row, geom.SizeY)
	}

	companions, primaryIndex, err := groupCompanions(absPath, opts.GroupFiles, opts.Warnf)
	if err != nil {
		_ = src.close()
		return nil, err
	}
	geom.SizeZ = len(companions)

	return &Reader{
		state:        stateReady,
		primaryPath:  absPath,
		primaryIndex: primaryIndex,
		companions:   companions,
		primarySrc:   src,
		geometry:     geom,
		layout:       lay,
		patch:        pat,
		comment:      comment,
		opts:         opts,
	}, nil
}

// IsDCIMG reports whether r's next five bytes are the DCIMG magic,
// restoring r's original position before returning.
func IsDCIMG(r io.ReadSeeker) (bool, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, newIOErrorf("tell: %w", err)
	}
	buf := make([]byte, len(magic))
	_, err = io.ReadFull(r, buf)
	if _, serr := r.Seek(pos, io.SeekStart); serr != nil && err == nil {
		err = serr
	}
	if err != nil {
		return false, newIOErrorf("read magic: %w", err)
	}
	return string(buf) == magic, nil
}

// Geometry returns the reader's geometry record.
func (r *Reader) Geometry() Geometry {
	return r.geometry
}

// ImageCount returns sizeZ * sizeT * sizeC.
func (r *Reader) ImageCount() int {
	return r.geometry.SizeZ * r.geometry.SizeT * r.geometry.SizeC
}

// Comment returns the operator comment decoded from the file's note area,
// or the empty string if absent or undecodable.
func (r *Reader) Comment() string {
	return r.comment
}

// UsedFiles returns the absolute paths backing this reader. When noPixels
// is true it returns an empty (non-nil) slice: in DCIMG every companion
// file carries pixel data, so there are no pixel-free metadata files to
// report, matching the convention of similar multi-file format readers.
func (r *Reader) UsedFiles(noPixels bool) []string {
	if noPixels {
		return []string{}
	}
	out := make([]string, len(r.companions))
	copy(out, r.companions)
	return out
}

// ReadPlane fills buf, which must be exactly w*h*byteFactor bytes, with
// the row-major pixel window (x, y, w, h) of the plane at planeIndex.
func (r *Reader) ReadPlane(planeIndex int, buf []byte, x, y, w, h int) ([]byte, error) {
	if r.state != stateReady {
		return nil, newStateErrorf("ReadPlane called in state %d, want Ready", r.state)
	}
	return r.readPlane(planeIndex, buf, x, y, w, h)
}

// Close releases the reader's primary file handle. It is safe to call
// more than once; calls after the first are no-ops. No method may be
// called on a closed Reader except Close itself.
func (r *Reader) Close() error {
	if r.state == stateClosed {
		return nil
	}
	r.state = stateClosed
	if r.primarySrc != nil {
		return r.primarySrc.close()
	}
	return nil
}
