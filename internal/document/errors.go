package document

import "errors"

// ErrParse is returned when a file cannot be parsed as HTML.
var ErrParse = errors.New("failed to parse HTML document")
