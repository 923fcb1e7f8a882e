// Copyright 2026 The go-dcimg Authors
// SPDX-License-Identifier: MIT

package dcimg

import (
	"golang.org/x/text/encoding/japanese"
)

// maxCommentBytes bounds the speculative note-area read so a corrupt or
// unexpected length field cannot make Open allocate something enormous.
const maxCommentBytes = 4096

// v1CommentOffset is the speculative offset, relative to headerSize, of
// the note area in V1 files: immediately after the frameFooterSize field
// parsed in parseHeaderV1 ([124..128) -> 128).
const v1CommentOffset = 128

// readCommentArea attempts to decode an operator comment stored at abs as
// a little-endian U32 byte count followed by that many Shift_JIS bytes,
// NUL-padded. It is best-effort: any I/O error, an implausible length, or
// undecodable bytes all simply yield an empty comment, since neither the
// presence nor the layout of this area is guaranteed across files and it
// must never cause Open to fail.
func readCommentArea(s *byteSource, abs int64) string {
	var comment string
	_ = s.preservePos(func() error {
		if err := s.seek(abs); err != nil {
			return nil //nolint:nilerr // best-effort: absence is not an error.
		}
		n, err := s.readU32le()
		if err != nil || n == 0 || n > maxCommentBytes {
			return nil
		}
		raw, err := s.readN(int(n))
		if err != nil {
			return nil
		}
		raw = trimBytesNulls(raw)
		if len(raw) == 0 {
			return nil
		}
		decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(raw)
		if err != nil {
			return nil
		}
		comment = string(decoded)
		return nil
	})
	return comment
}
