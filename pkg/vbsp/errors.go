package vbsp

import "errors"

// Format errors. All of them abort the parse.
var (
	ErrInvalidMagic       = errors.New("invalid VBSP magic: expected 'VBSP'")
	ErrUnsupportedVersion = errors.New("unsupported VBSP version")
	ErrLumpVersion        = errors.New("unexpected lump version")
	ErrTruncated          = errors.New("truncated VBSP data")
	ErrBadLZMA            = errors.New("malformed LZMA lump")
	ErrBadIndex           = errors.New("index out of range")
)
