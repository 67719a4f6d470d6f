package tcga2matrix

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"io"

	"github.com/csimplestring/go-csv/detector"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

// DetermineDelimiter returns the single most likely rune delimiting the
// values in the reader, assuming a CSV-like file. GDC expression files are
// tab-delimited, but nothing downstream depends on that being true.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
)

var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeZ:     {0x1f, 0x9d},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
}

// DetectDataType sniffs the first bytes of a stream and reports which known
// compression format, if any, they announce. Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
func DetectDataType(r io.Reader) (DataType, error) {
	buff := make([]byte, 6)
	if _, err := r.Read(buff); err != nil {
		return DataTypeInvalid, err
	}

Outer:
	for dt, sig := range byteCodeSigs {
		for position := range sig {
			if buff[position] != sig[position] {
				continue Outer
			}
		}
		return dt, nil
	}

	return DataTypeNoCompression, nil
}

// MaybeDecompressReadCloser wraps the contents in the appropriate
// decompressor based on their leading magic bytes. GDC downloads frequently
// arrive gzipped, so the expression parser never assumes plain text.
func MaybeDecompressReadCloser(bts []byte) (io.ReadCloser, error) {
	dt, err := DetectDataType(bytes.NewReader(bts))
	if err != nil {
		return nil, err
	}

	r := bytes.NewReader(bts)

	switch dt {
	case DataTypeGzip:
		return gzip.NewReader(r)
	case DataTypeZip:
		return &readCloserFaker{zipstream.NewReader(r)}, nil
	case DataTypeBZip2:
		return &readCloserFaker{bzip2.NewReader(r)}, nil
	case DataTypeXZ:
		reader, err := xz.NewReader(r, 0)
		if err != nil {
			return nil, err
		}
		return &readCloserFaker{reader}, nil
	case DataTypeZ:
		return zlib.NewReader(r)
	}

	// No data type detected. For now, we assume this is uncompressed.
	return &readCloserFaker{r}, nil
}

// readCloserFaker "upgrades" readers that don't need to be closed
type readCloserFaker struct {
	io.Reader
}

func (c *readCloserFaker) Close() error {
	return nil
}
