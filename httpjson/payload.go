package httpjson

import (
	"bytes"
	"fmt"
	"strconv"
)

// MaxValues is the capacity of a decoded integer list.
const MaxValues = 16

// Kind tells which JSON shape a Payload holds.
type Kind int

const (
	Scalar Kind = iota
	List
)

func (k Kind) String() string {
	if k == List {
		return "list"
	}
	return "scalar"
}

// Payload is a decoded JSON body: one integer or a flat integer list.
type Payload struct {
	Kind   Kind
	Scalar int64
	List   []int64
}

// Values returns the payload as a list; a scalar becomes a single element.
func (p Payload) Values() []int64 {
	if p.Kind == Scalar {
		return []int64{p.Scalar}
	}
	return p.List
}

func (p Payload) String() string {
	if p.Kind == Scalar {
		return strconv.FormatInt(p.Scalar, 10)
	}
	var b []byte
	b = append(b, '[')
	for i, v := range p.List {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendInt(b, v, 10)
	}
	return string(append(b, ']'))
}

// DecodePayload decodes body as a base-10 integer or a bracketed,
// comma-separated list of them. Whitespace around tokens is allowed.
func DecodePayload(body []byte) (Payload, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Payload{}, fmt.Errorf("%w: empty body", ErrJSON)
	}

	if body[0] != '[' {
		n, err := parseInt(body)
		if err != nil {
			return Payload{}, err
		}
		return Payload{Kind: Scalar, Scalar: n}, nil
	}

	if body[len(body)-1] != ']' {
		return Payload{}, fmt.Errorf("%w: unterminated array", ErrJSON)
	}
	inner := bytes.TrimSpace(body[1 : len(body)-1])
	list := make([]int64, 0, MaxValues)
	if len(inner) == 0 {
		return Payload{Kind: List, List: list}, nil
	}
	for _, field := range bytes.Split(inner, []byte{','}) {
		if len(list) == MaxValues {
			return Payload{}, fmt.Errorf("%w: more than %d values", ErrJSON, MaxValues)
		}
		n, err := parseInt(bytes.TrimSpace(field))
		if err != nil {
			return Payload{}, err
		}
		list = append(list, n)
	}
	return Payload{Kind: List, List: list}, nil
}

// parseInt accepts a JSON integer: optional '-', then digits without a
// leading zero.
func parseInt(tok []byte) (int64, error) {
	digits := tok
	if len(digits) > 0 && digits[0] == '-' {
		digits = digits[1:]
	}
	if len(digits) == 0 {
		return 0, fmt.Errorf("%w: missing number", ErrJSON)
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: unsupported value %q", ErrJSON, tok)
		}
	}
	if len(digits) > 1 && digits[0] == '0' {
		return 0, fmt.Errorf("%w: leading zero in %q", ErrJSON, tok)
	}
	n, err := strconv.ParseInt(string(tok), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrJSON, err)
	}
	return n, nil
}
