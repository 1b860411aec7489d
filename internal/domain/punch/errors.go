package punch

import "errors"

var (
	ErrMissingUserID = errors.New("punch row has no user id")
	ErrBadTimestamp  = errors.New("punch row timestamp is missing or unparseable")
)
