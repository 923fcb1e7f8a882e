// Copyright 2026 The go-dcimg Authors
// SPDX-License-Identifier: MIT

package dcimg

// Skip lengths between global prefix fields; the comments give the
// absolute offsets each skip moves between.
const (
	prefixHeaderSizeSkip = 20 // version end (12) -> headerSize start (32)
	prefixFileSizeSkip   = 4  // headerSize end (36) -> fileSize start (40)
	prefixFileSize2Skip  = 12 // fileSize end (44) -> fileSize2 start (56)
	prefixTailSkip       = 16 // fileSize2 end (60) -> trailing U32 start (76)
)

// parseHeader reads the global prefix and the per-version session header,
// returning the geometry and layout records. The magic check must already
// have been performed by the caller.
func parseHeader(s *byteSource, warnf func(string, ...any)) (Geometry, layoutRecord, error) {
	var geom Geometry
	var lay layoutRecord

	if err := s.seek(8); err != nil {
		return geom, lay, err
	}
	rawVersion, err := s.readU32le()
	if err != nil {
		return geom, lay, err
	}

	switch {
	case rawVersion == rawVersionV0:
		geom.Version = VersionV0
	case rawVersion >= rawVersionV1Floor:
		geom.Version = VersionV1
		if rawVersion > rawVersionV1Floor {
			warnf("dcimg: version %#x is newer than any tested against this reader", rawVersion)
		}
	default:
		return geom, lay, newFormatErrorf("unknown DCIMG version %#x", rawVersion)
	}

	if err := s.skip(prefixHeaderSizeSkip); err != nil {
		return geom, lay, err
	}
	headerSize, err := s.readU32le()
	if err != nil {
		return geom, lay, err
	}
	lay.headerSize = int64(headerSize)

	if err := s.skip(prefixFileSizeSkip); err != nil {
		return geom, lay, err
	}
	fileSize, err := s.readU32le()
	if err != nil {
		return geom, lay, err
	}

	if err := s.skip(prefixFileSize2Skip); err != nil {
		return geom, lay, err
	}
	fileSize2, err := s.readU32le()
	if err != nil {
		return geom, lay, err
	}
	if fileSize2 != fileSize {
		return geom, lay, newFormatErrorf("file sizes do not match: %d != %d", fileSize, fileSize2)
	}

	if err := s.skip(prefixTailSkip); err != nil {
		return geom, lay, err
	}
	if _, err := s.readU32le(); err != nil { // observed constant 1024; unused.
		return geom, lay, err
	}

	if geom.Version == VersionV0 {
		if err := parseHeaderV0(s, &geom, &lay); err != nil {
			return geom, lay, err
		}
	} else {
		if err := parseHeaderV1(s, &geom, &lay); err != nil {
			return geom, lay, err
		}
	}

	geom.SizeC = 1
	geom.LittleEndian = true
	geom.DimensionOrder = dimensionOrder

	if err := checkGeometry(geom, lay); err != nil {
		return geom, lay, err
	}

	return geom, lay, nil
}

func parseHeaderV0(s *byteSource, geom *Geometry, lay *layoutRecord) error {
	if err := s.seek(lay.headerSize); err != nil {
		return err
	}
	if err := s.skip(32); err != nil {
		return err
	}
	sizeT, err := s.readI32le()
	if err != nil {
		return err
	}
	pixelTypeRaw, err := s.readI32le()
	if err != nil {
		return err
	}
	if err := s.skip(4); err != nil {
		return err
	}
	sizeX, err := s.readI32le()
	if err != nil {
		return err
	}
	bytesPerRow, err := s.readU32le()
	if err != nil {
		return err
	}
	sizeY, err := s.readI32le()
	if err != nil {
		return err
	}
	bytesPerImage, err := s.readU32le()
	if err != nil {
		return err
	}
	if err := s.skip(8); err != nil {
		return err
	}
	dataOffset, err := s.readI32le()
	if err != nil {
		return err
	}
	offsetToFooter, err := s.readI64le()
	if err != nil {
		return err
	}

	pixelType, err := pixelTypeFromRaw(pixelTypeRaw)
	if err != nil {
		return err
	}

	geom.SizeT = int(sizeT)
	geom.SizeX = int(sizeX)
	geom.SizeY = int(sizeY)
	geom.PixelType = pixelType

	lay.bytesPerRow = int64(bytesPerRow)
	lay.bytesPerImage = int64(bytesPerImage)
	lay.dataOffset = int64(dataOffset)
	lay.offsetToFooter = offsetToFooter

	return nil
}

func parseHeaderV1(s *byteSource, geom *Geometry, lay *layoutRecord) error {
	if err := s.seek(lay.headerSize); err != nil {
		return err
	}
	if err := s.skip(8); err != nil { // session length
		return err
	}
	if err := s.skip(52); err != nil {
		return err
	}
	sizeT, err := s.readI32le()
	if err != nil {
		return err
	}
	pixelTypeRaw, err := s.readI32le()
	if err != nil {
		return err
	}
	if err := s.skip(4); err != nil {
		return err
	}
	sizeX, err := s.readI32le()
	if err != nil {
		return err
	}
	sizeY, err := s.readI32le()
	if err != nil {
		return err
	}
	if err := s.skip(4); err != nil {
		return err
	}
	bytesPerImage, err := s.readU32le()
	if err != nil {
		return err
	}
	if err := s.skip(8); err != nil {
		return err
	}
	dataOffset, err := s.readI64le()
	if err != nil {
		return err
	}
	if err := s.skip(20); err != nil {
		return err
	}
	frameFooterSize, err := s.readU32le()
	if err != nil {
		return err
	}

	pixelType, err := pixelTypeFromRaw(pixelTypeRaw)
	if err != nil {
		return err
	}

	geom.SizeT = int(sizeT)
	geom.SizeX = int(sizeX)
	geom.SizeY = int(sizeY)
	geom.PixelType = pixelType

	lay.bytesPerImage = int64(bytesPerImage)
	lay.dataOffset = dataOffset
	lay.frameFooterSize = int64(frameFooterSize)

	return nil
}

// checkGeometry enforces the cross-field invariants that are cheap to
// check eagerly, so a caller sees a FormatError at Open time rather than
// a confusing failure deep inside the first ReadPlane.
func checkGeometry(geom Geometry, lay layoutRecord) error {
	if geom.SizeX <= 0 || geom.SizeY <= 0 || geom.SizeT <= 0 {
		return newFormatErrorf("non-positive geometry: sizeX=%d sizeY=%d sizeT=%d", geom.SizeX, geom.SizeY, geom.SizeT)
	}
	bf := geom.PixelType.byteFactor()
	if lay.bytesPerImage != 0 && int64(geom.SizeX*geom.SizeY*bf) != lay.bytesPerImage {
		return newFormatErrorf("sizeX*sizeY*byteFactor (%d) != bytesPerImage (%d)", geom.SizeX*geom.SizeY*bf, lay.bytesPerImage)
	}
	return nil
}
