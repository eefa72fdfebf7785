package sitephoto

import "errors"

var ErrConfirmationNotFound = errors.New("site photo confirmation not found")
