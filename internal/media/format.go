package media

import (
	"fmt"
	"strconv"
	"strings"
)

// ReferenceFormat names the unmodified original asset.
const ReferenceFormat = "reference"

// Format describes a derived thumbnail size.
type Format struct {
	Name      string
	Width     int
	Height    int
	Constrain bool
}

// FormatRegistry is an insertion-ordered, read-only set of formats.
type FormatRegistry struct {
	order  []string
	byName map[string]Format
}

// NewFormatRegistry validates and registers formats in the given order.
func NewFormatRegistry(formats ...Format) (*FormatRegistry, error) {
	r := &FormatRegistry{byName: make(map[string]Format, len(formats))}
	for _, f := range formats {
		name := strings.TrimSpace(f.Name)
		switch {
		case name == "":
			return nil, fmt.Errorf("%w: empty name", ErrInvalidFormat)
		case name == ReferenceFormat:
			return nil, fmt.Errorf("%w: %q is reserved", ErrInvalidFormat, name)
		case f.Width <= 0 || f.Height <= 0:
			return nil, fmt.Errorf("%w: %q has non-positive size %dx%d", ErrInvalidFormat, name, f.Width, f.Height)
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidFormat, name)
		}
		f.Name = name
		r.order = append(r.order, name)
		r.byName[name] = f
	}
	return r, nil
}

// Get returns the format registered under name.
func (r *FormatRegistry) Get(name string) (Format, bool) {
	if r == nil {
		return Format{}, false
	}
	f, ok := r.byName[name]
	return f, ok
}

// All returns the registered formats in insertion order.
func (r *FormatRegistry) All() []Format {
	if r == nil {
		return nil
	}
	out := make([]Format, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns the registered format names in insertion order.
func (r *FormatRegistry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// Len returns the number of registered formats.
func (r *FormatRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// ParseFormats reads a comma separated list of name:WIDTHxHEIGHT[:constrain] entries,
// e.g. "big:200x100:constrain,small:100x70".
func ParseFormats(value string) (*FormatRegistry, error) {
	var formats []Format
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("%w: malformed entry %q", ErrInvalidFormat, entry)
		}

		dims := strings.SplitN(strings.ToLower(parts[1]), "x", 2)
		if len(dims) != 2 {
			return nil, fmt.Errorf("%w: malformed size in %q", ErrInvalidFormat, entry)
		}
		width, err := strconv.Atoi(strings.TrimSpace(dims[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: width in %q: %v", ErrInvalidFormat, entry, err)
		}
		height, err := strconv.Atoi(strings.TrimSpace(dims[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: height in %q: %v", ErrInvalidFormat, entry, err)
		}

		f := Format{Name: parts[0], Width: width, Height: height}
		if len(parts) == 3 {
			switch strings.TrimSpace(parts[2]) {
			case "constrain", "true":
				f.Constrain = true
			case "", "free", "false":
			default:
				return nil, fmt.Errorf("%w: unknown option %q in %q", ErrInvalidFormat, parts[2], entry)
			}
		}
		formats = append(formats, f)
	}
	return NewFormatRegistry(formats...)
}
