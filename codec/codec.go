// Package codec defines the interfaces for the wire encoding of nostr
// messages and their constituent parts.
//
// Marshal appends the encoded form to dst and returns the extended slice,
// Unmarshal consumes its encoding from the front of b and returns the
// remainder.
package codec

// JSON is an element that can marshal and unmarshal its JSON form.
type JSON interface {
	// Marshal converts the data of the type into JSON, appending it to the
	// provided slice and returning the extended slice.
	Marshal(dst []byte) (b []byte)
	// Unmarshal decodes a JSON form of a type back into the runtime form,
	// and returns whatever remains after the type has been decoded out.
	Unmarshal(b []byte) (r []byte, err error)
}

// Envelope is a JSON element that is identified by a label, the first string
// in its enclosing JSON array.
type Envelope interface {
	Label() string
	JSON
}
