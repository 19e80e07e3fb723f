package websearch

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Outcome is the result of one web search: either Success or Failure.
type Outcome interface {
	// OK reports whether the search succeeded.
	OK() bool
	outcome()
}

// Success carries the decoded response body.
type Success struct {
	Query  string
	Tool   string
	Result Payload
}

func (Success) OK() bool { return true }
func (Success) outcome() {}

// FailureKind distinguishes why a search failed. Callers normally only need
// OK; the kind is for logs and metrics.
type FailureKind string

const (
	FailureTimeout   FailureKind = "timeout"
	FailureStatus    FailureKind = "status"
	FailureTransport FailureKind = "transport"
	FailureOther     FailureKind = "other"
)

// Failure describes a search that produced no usable result.
type Failure struct {
	Query  string
	Kind   FailureKind
	Reason string
	// StatusCode and Body are set for FailureStatus.
	StatusCode int
	Body       string
}

func (Failure) OK() bool { return false }
func (Failure) outcome() {}

// PayloadKind identifies which variant of Payload is populated.
type PayloadKind int

const (
	PayloadOther PayloadKind = iota
	PayloadText
	PayloadObject
	PayloadList
)

// Payload is a search response body decoded once into one of four shapes.
type Payload struct {
	Kind   PayloadKind
	Text   string
	Object map[string]any
	List   []any
	// Other holds scalars (numbers, booleans, null).
	Other any
}

// decodePayload classifies a JSON document. Numbers keep their literal form.
func decodePayload(body []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Payload{}, fmt.Errorf("decoding search response: %w", err)
	}
	if dec.More() {
		return Payload{}, fmt.Errorf("decoding search response: trailing data")
	}

	switch tv := v.(type) {
	case string:
		return Payload{Kind: PayloadText, Text: tv}, nil
	case map[string]any:
		return Payload{Kind: PayloadObject, Object: tv}, nil
	case []any:
		return Payload{Kind: PayloadList, List: tv}, nil
	default:
		return Payload{Kind: PayloadOther, Other: tv}, nil
	}
}
