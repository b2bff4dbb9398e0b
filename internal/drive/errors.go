package drive

import "errors"

var (
	ErrFolderNotFound      = errors.New("folder not found")
	ErrFolderAlreadyExists = errors.New("a folder with this path already exists")
	ErrInvalidFolderName   = errors.New("folder name must not be empty or contain '/'")
	ErrObjectNotFound      = errors.New("object not found")
)
