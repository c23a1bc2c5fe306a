package storage

import "errors"

var (
	ErrUserExists       = errors.New("user already exists")
	ErrUserNotFound     = errors.New("user not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrorNoSuchKey      = errors.New("no such key")
)

var (
	ErrFileTooLarge  = errors.New("file size exceeds limit")
	ErrInvalidFolder = errors.New("invalid storage folder")
	ErrFileNotFound  = errors.New("file not found")
)
