package service

import "errors"

// ErrValidation marks a malformed settlement request, such as answers
// referencing questions outside the quiz. Nothing is mutated when a
// wrapped ErrValidation is returned.
var ErrValidation = errors.New("invalid settlement request")
