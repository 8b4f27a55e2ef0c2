package sensor

import "errors"

var (
	errNoAmbient    = errors.New("no ambient sensor configured")
	errInvalidValue = errors.New("non-finite measurement")
)
