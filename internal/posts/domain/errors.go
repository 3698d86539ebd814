package domain

import "errors"

var (
	// ErrMissingImage rejects post creation without an image URL; a
	// caption alone is insufficient under current policy.
	ErrMissingImage = errors.New("a post requires an image")
	// ErrEmptyComment rejects comments that are empty after trimming.
	ErrEmptyComment = errors.New("comment text is empty")
)
