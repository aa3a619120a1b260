package lyrics

import (
	"errors"
	"strconv"
)

// ErrNoLyrics is returned when the remote entry is marked as having none
var ErrNoLyrics = errors.New("no lyrics available")

// HTTPStatusError is returned for responses outside 2xx/3xx
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return "unexpected http status " + strconv.Itoa(e.Code)
}

// SourceNotFoundError indicates that no enabled source has this id
type SourceNotFoundError struct {
	ID string
}

func (e *SourceNotFoundError) Error() string {
	return "lyric source not found: " + e.ID
}

// InvalidTokenError indicates a download token the source did not issue
type InvalidTokenError struct {
	Token string
}

func (e *InvalidTokenError) Error() string {
	return "invalid download token: " + e.Token
}
