package lineitems

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotReady      = errors.New("editor is not loaded")
	ErrReadOnly      = errors.New("editor is read-only")
	ErrGroupNotFound = errors.New("group not found")
	ErrItemNotFound  = errors.New("item not found")
)

// FetchError reports a failed initial load of groups or catalog rows.
type FetchError struct {
	Kind  string
	Table string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("could not load %s data from %s: %v", e.Kind, e.Table, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ConfigurationError reports a selection that matches no catalog row.
type ConfigurationError struct {
	ItemNoun  string
	Selection Selection
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("Invalid %s configuration", e.ItemNoun)
}

// ValidationError carries per-field messages for rejected item input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// RemoteMutationError reports a failed insert, update or delete against the
// store. Reloaded is set when local state was resynchronized afterwards.
type RemoteMutationError struct {
	Op       string
	Table    string
	ID       string
	Err      error
	Reloaded bool
}

func (e *RemoteMutationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s on %s failed: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("%s on %s/%s failed: %v", e.Op, e.Table, e.ID, e.Err)
}

func (e *RemoteMutationError) Unwrap() error { return e.Err }

// UserMessage returns the text shown to the operator for an editor error.
func UserMessage(err error) string {
	var cfgErr *ConfigurationError
	var valErr *ValidationError
	var remoteErr *RemoteMutationError
	var fetchErr *FetchError
	switch {
	case errors.As(err, &cfgErr):
		return cfgErr.Error()
	case errors.As(err, &valErr):
		return "Please check the entered values"
	case errors.As(err, &remoteErr):
		if remoteErr.Reloaded {
			return "Could not save changes. The editor was reloaded."
		}
		return "Could not save changes. Please try again."
	case errors.As(err, &fetchErr):
		return "Could not load data. Please try again."
	case errors.Is(err, ErrReadOnly):
		return "This offer can no longer be edited"
	case errors.Is(err, ErrGroupNotFound), errors.Is(err, ErrItemNotFound):
		return "Item not found"
	default:
		return "Something went wrong. Please try again."
	}
}
