package parley

import "net/url"

// Request capability interfaces. A backend family declares its own concrete
// request type and implements the subset of capabilities its wire format
// supports. Markers are written against these interfaces rather than a
// concrete request type, so the same marker applies across backend families.

// SupportsVerb is implemented by request types with a request verb
// (an HTTP method, typically).
type SupportsVerb interface {
	SetVerb(verb string)
}

// SupportsPath is implemented by request types with a URL path.
type SupportsPath interface {
	SetPath(path string)
}

// SupportsQuery is implemented by request types with query parameters.
type SupportsQuery interface {
	AddQuery(name string, value any)
}

// SupportsQueryValues is implemented by request types that accept a whole
// set of pre-encoded query values at once.
type SupportsQueryValues interface {
	AddQueryValues(values url.Values)
}

// SupportsHeaders is implemented by request types with named headers.
type SupportsHeaders interface {
	AddHeader(name, value string)
}

// SupportsBodyField is implemented by request types whose body is a keyed
// document assembled field by field.
type SupportsBodyField interface {
	SetBodyField(name string, value any)
}

// SupportsBody is implemented by request types whose body can be replaced
// wholesale by a single value.
type SupportsBody interface {
	SetBody(value any)
}

// SupportsOperation is implemented by envelope-style request types that
// address a remote operation by name instead of a URL.
type SupportsOperation interface {
	SetOperation(name string)
}
