package ers

import (
	"encoding/json"
	"fmt"
)

// Verb is an HTTP method usable against ERS.
type Verb string

const (
	VerbGet    Verb = "GET"
	VerbPost   Verb = "POST"
	VerbPut    Verb = "PUT"
	VerbPatch  Verb = "PATCH"
	VerbDelete Verb = "DELETE"
)

// bodyKind tags the payload variant of a descriptor.
type bodyKind int

const (
	bodyNone bodyKind = iota
	bodyJSON
	bodyRaw
)

// Body is the tagged payload variant of a request descriptor: either a
// structured value encoded as JSON, or pre-encoded raw bytes with their
// own content type (the bulk subtree takes XML). The encoding is decided
// at descriptor-build time, not inspected at call time.
type Body struct {
	kind        bodyKind
	value       any
	raw         []byte
	contentType string
}

// NoBody is the empty payload.
var NoBody = Body{}

// JSONBody wraps a structured value to be encoded as application/json.
func JSONBody(value any) Body {
	return Body{kind: bodyJSON, value: value, contentType: "application/json"}
}

// RawBody wraps pre-encoded bytes with an explicit content type.
func RawBody(contentType string, data []byte) Body {
	return Body{kind: bodyRaw, raw: data, contentType: contentType}
}

// ContentType returns the body's media type, or application/json for an
// empty body (the ERS default for Accept/Content-Type headers).
func (b Body) ContentType() string {
	if b.kind == bodyNone {
		return "application/json"
	}
	return b.contentType
}

// Encode returns the wire bytes of the body. Empty for NoBody.
func (b Body) Encode() ([]byte, error) {
	switch b.kind {
	case bodyNone:
		return nil, nil
	case bodyJSON:
		data, err := json.Marshal(b.value)
		if err != nil {
			return nil, fmt.Errorf("encode JSON body: %w", err)
		}
		return data, nil
	case bodyRaw:
		return b.raw, nil
	default:
		return nil, fmt.Errorf("unknown body kind %d", b.kind)
	}
}

// Descriptor describes one physical call. Immutable once built; one
// instance per call.
type Descriptor struct {
	Verb     Verb
	URL      string
	Body     Body
	Category string
}
