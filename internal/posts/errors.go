package posts

import "errors"

var (
	ErrNotFound      = errors.New("post not found")
	ErrSlugExists    = errors.New("slug already exists")
	ErrForbidden     = errors.New("actor does not own post")
	ErrNoPhoto       = errors.New("post has no photo")
	ErrActiveRequest = errors.New("post has an accepted or shipped request")
)
