package correlate

import "errors"

// ErrCorrelation marks I/O failures while reading the listing or tool
// outputs. A missing output file is never an error.
var ErrCorrelation = errors.New("correlation failed")
