package flatfile

import "fmt"

// FetchError means both the primary and fallback transport failed (or the
// primary failed and no fallback was permitted). Fatal for the file.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// FormatError means the origin returned an HTML error page instead of
// tabular data and no fallback path remained. Fatal for the file.
type FormatError struct {
	URL     string
	Snippet string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("fetch %s: origin returned an HTML error page, not data (%s)", e.URL, e.Snippet)
}
