package question

import "errors"

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrTitleRequired    = errors.New("question title must not be empty")
	ErrInvalidStatus    = errors.New("invalid question status")
	ErrLinkNotFound     = errors.New("question link not found")
)
