package model

import (
	"net/url"
	"strconv"
)

// ParseTransform reads the "w" and "h" query parameters. A transform is
// returned only when both are strictly positive base-10 integers; anything
// else means no transform was requested.
func ParseTransform(query url.Values) *Transform {
	width := intParam(query, "w")
	height := intParam(query, "h")
	if width > 0 && height > 0 {
		return &Transform{Width: width, Height: height}
	}
	return nil
}

// intParam returns the first value of key as an int32-sized integer, or -1
// when it is missing or does not parse.
func intParam(query url.Values, key string) int {
	vals := query[key]
	if len(vals) == 0 {
		return -1
	}
	n, err := strconv.ParseInt(vals[0], 10, 32)
	if err != nil {
		return -1
	}
	return int(n)
}
