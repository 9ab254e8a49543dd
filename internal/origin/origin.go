package origin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when the origin has nothing at a path.
var ErrNotFound = errors.New("resource not found")

// StatusError reports a non-success HTTP response.
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status code: %d", e.Path, e.StatusCode)
}

// Origin returns the bytes stored behind a site-relative path.
type Origin interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// FetchJSON fetches path and decodes it into v. A JSON null body is reported
// as an error so callers can treat it like a missing resource.
func FetchJSON(ctx context.Context, o Origin, path string, v interface{}) error {
	data, err := o.Fetch(ctx, path)
	if err != nil {
		return err
	}

	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if string(raw) == "null" {
		return fmt.Errorf("parsing %s: empty document", path)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
