// Copyright 2026 The go-dcimg Authors
// SPDX-License-Identifier: MIT

package dcimg

// parseFooterV0 follows the two-hop pointer chain into the footer region
// to locate the four-pixel patch, and opportunistically decodes the note
// area that may follow it. The note area is speculative: any failure
// reading or decoding it is swallowed and simply yields an empty comment.
func parseFooterV0(s *byteSource, lay layoutRecord, geom Geometry, warnf func(string, ...any)) (patchRecord, string, error) {
	var pat patchRecord

	footerStart := lay.headerSize + lay.offsetToFooter
	if err := s.seek(footerStart); err != nil {
		return pat, "", err
	}
	footerVersion, err := s.readU32le()
	if err != nil {
		return pat, "", err
	}
	if footerVersion != rawVersionV0 {
		return pat, "", newFormatErrorf("footer version %#x does not match header version", footerVersion)
	}
	if err := s.skip(4); err != nil {
		return pat, "", err
	}
	secondFooterOffset, err := s.readI64le()
	if err != nil {
		return pat, "", err
	}

	secondFooterStart := footerStart + secondFooterOffset
	if err := s.seek(secondFooterStart); err != nil {
		return pat, "", err
	}
	if err := s.skip(72); err != nil {
		return pat, "", err
	}
	if err := s.skip(16); err != nil {
		return pat, "", err
	}
	offsetToFourPixels, err := s.readI64le()
	if err != nil {
		return pat, "", err
	}
	if err := s.skip(4); err != nil {
		return pat, "", err
	}
	fourPixelOffsetInFrame, err := s.readU32le()
	if err != nil {
		return pat, "", err
	}
	fourPixelSize, err := s.readI64le()
	if err != nil {
		return pat, "", err
	}

	pat.present = fourPixelSize > 0
	if pat.present {
		if lay.bytesPerRow == 0 {
			return pat, "", newFormatErrorf("bytesPerRow is zero; cannot compute patch row")
		}
		pat.row = int(fourPixelOffsetInFrame/uint64(lay.bytesPerRow)) + 1
	} else {
		pat.row = geom.SizeY - 1
	}
	pat.absoluteOffset = footerStart + offsetToFourPixels

	notePos, err := s.pos()
	if err != nil {
		return pat, "", err
	}
	comment := readCommentArea(s, notePos)

	_ = warnf // reserved: no warnings currently originate from the V0 footer path.

	return pat, comment, nil
}

// computePatchV1 derives the patch record for V1 files directly from the
// session header fields; V1 has no footer chain to follow. The presence
// check and row formula are heuristics with no documented rationale in
// any V1 sample seen; callers that know better should set
// Options.PatchRowOverride.
func computePatchV1(lay layoutRecord, geom Geometry) patchRecord {
	var pat patchRecord
	pat.present = lay.frameFooterSize >= 512 || lay.frameFooterSize == 32
	if geom.SizeY%2 == 0 {
		pat.row = geom.SizeY / 2
	} else {
		pat.row = geom.SizeY/2 + 1
	}
	pat.absoluteOffset = lay.headerSize + lay.dataOffset + lay.bytesPerImage + 12
	return pat
}
