package document

import "errors"

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrNoExtractedText  = errors.New("document has no extracted text")
	ErrFileNameRequired = errors.New("document file name must not be empty")
)
