package httpjson

import "errors"

var (
	// ErrParse is returned when the response lacks a status line or the
	// blank line that separates headers from the body.
	ErrParse = errors.New("http parse error")

	// ErrJSON is returned when the body is not a single integer or a flat
	// array of at most MaxValues integers.
	ErrJSON = errors.New("json error")
)
