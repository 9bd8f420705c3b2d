package dict

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyKeyword is returned when adding an entry whose keyword is empty.
	ErrEmptyKeyword = errors.New("dict: empty keyword")

	// ErrInvalidUTF8 is reported for lines whose keyword is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("dict: keyword is not valid UTF-8")

	// ErrNilEntry is reported by Validate for a nil element of Entries.
	ErrNilEntry = errors.New("dict: nil entry")
)

// TagError reports an entry whose tag is not its index in Entries.
type TagError struct {
	Index int
	Tag   int
}

// Error implements the error interface.
func (e *TagError) Error() string {
	return fmt.Sprintf("dict: entry %d has tag %d, want %d", e.Index, e.Tag, e.Index)
}

// ParseError describes a malformed dictionary line.
type ParseError struct {
	Line int // 1-based
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("dict: line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Dict is an ordered collection of entries. Tags are assigned in insertion
// order and index Entries.
//
// A Dict is filled once and then shared read-only by every matcher built
// from it.
type Dict struct {
	Entries []*Entry
}

// New returns an empty dictionary.
func New() *Dict {
	return &Dict{}
}

// Add appends an entry and returns it.
func (d *Dict) Add(keyword, extra string) (*Entry, error) {
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	e := &Entry{
		Keyword: keyword,
		Extra:   extra,
		Tag:     len(d.Entries),
	}
	d.Entries = append(d.Entries, e)
	return e, nil
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Entries)
}

// Validate checks that d can be compiled: every entry is non-nil, has a
// keyword, and carries its index as tag. Dictionaries filled through Add
// always pass.
func (d *Dict) Validate() error {
	if d == nil {
		return nil
	}
	for i, e := range d.Entries {
		switch {
		case e == nil:
			return fmt.Errorf("dict: entry %d: %w", i, ErrNilEntry)
		case e.Keyword == "":
			return fmt.Errorf("dict: entry %d: %w", i, ErrEmptyKeyword)
		case e.Tag != i:
			return &TagError{Index: i, Tag: e.Tag}
		}
	}
	return nil
}

// Entry returns the entry with the given tag, or nil.
func (d *Dict) Entry(tag int) *Entry {
	if tag < 0 || tag >= d.Len() {
		return nil
	}
	return d.Entries[tag]
}
