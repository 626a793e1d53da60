package store

import "errors"

var (
	ErrNotFound            = errors.New("item not found")
	ErrInvalidItem         = errors.New("invalid item")
	ErrInvalidRelationship = errors.New("invalid relationship")
	ErrDuplicateID         = errors.New("duplicate item id")
	ErrDanglingTarget      = errors.New("relationship target does not exist")
	ErrMalformed           = errors.New("malformed document")
)
