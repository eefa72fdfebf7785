package roster

import "errors"

var ErrShiftNotFound = errors.New("scheduled shift not found")
