package share

import "errors"

var (
	ErrShareNotFound = errors.New("share not found")
	ErrNotRecipient  = errors.New("file was not shared with this account")
)
