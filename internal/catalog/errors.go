package catalog

import "errors"

var (
	// ErrCorruptStore means the persisted blob exists but cannot be decoded.
	ErrCorruptStore = errors.New("catalog: corrupt store")
	// ErrUnsupportedSchema means the blob was written by a newer schema.
	ErrUnsupportedSchema = errors.New("catalog: unsupported schema version")
	// ErrInvalidImport means an import payload failed parsing or validation.
	ErrInvalidImport = errors.New("catalog: invalid import payload")

	ErrGradeNotFound   = errors.New("catalog: grade not found")
	ErrSubjectNotFound = errors.New("catalog: subject not found")
	ErrHasDependents   = errors.New("catalog: entity still has uploaded content")
	ErrIncompleteFile  = errors.New("catalog: incomplete file metadata")
	ErrInvalidVideo    = errors.New("catalog: invalid video")
	ErrInvalidCategory = errors.New("catalog: invalid paper category")
	ErrInvalidLanguage = errors.New("catalog: invalid language")
	ErrInvalidID       = errors.New("catalog: invalid id")
	ErrUnknownResource = errors.New("catalog: unknown resource kind")
)
