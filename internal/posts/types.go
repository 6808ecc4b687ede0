// Package posts provides blog post persistence and validation.
// Posts belong to an author (a user) and carry a published flag used
// for listing filters.
package posts

import (
	"errors"
	"strings"
	"time"
)

// Author is the post author summary embedded in post responses.
type Author struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Post is a blog post joined with its author.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"author_id"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    Author    `json:"author"`
}

// Filter narrows post listings. Nil fields match everything.
type Filter struct {
	Published *bool
	AuthorID  *int64
}

// ErrPostNotFound is returned when a post lookup misses.
var ErrPostNotFound = errors.New("post not found")

// ValidatePost checks post input fields, returning human-readable
// messages for each failure.
func ValidatePost(title, content string) []string {
	var errs []string

	if strings.TrimSpace(title) == "" {
		errs = append(errs, "Title is required")
	}
	if strings.TrimSpace(content) == "" {
		errs = append(errs, "Content is required")
	}

	return errs
}
