package store

import "errors"

// Storage-level sentinel errors. Services translate these into coded
// domain errors at the boundary.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrAccountNotFound  = errors.New("seo account not found")
	ErrPostNotFound     = errors.New("blog post not found")
	ErrBacklinkNotFound = errors.New("backlink not found")
	ErrTokenNotFound    = errors.New("token not found")

	ErrEmailTaken  = errors.New("email already registered")
	ErrDomainTaken = errors.New("domain already registered")
	ErrSlugTaken   = errors.New("slug already in use")
)
