// Package jsondiff computes RFC 6902 style edit scripts between JSON trees.
//
// Operations come in document order, except that surplus trailing items of a
// sequence (extra top-level documents included) are removed from the highest
// index down, so the script can be replayed front to back.
package jsondiff

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ingest-test/ingesttest-go/internal/document"
)

// OpType names a patch operation.
type OpType string

const (
	OpAdd     OpType = "add"
	OpRemove  OpType = "remove"
	OpReplace OpType = "replace"
	OpMove    OpType = "move"
	OpCopy    OpType = "copy"
)

func (o OpType) Valid() bool {
	switch o {
	case OpAdd, OpRemove, OpReplace, OpMove, OpCopy:
		return true
	}
	return false
}

// Pointer is a parsed JSON pointer: the chain of mapping keys and sequence
// indices from the root to a location.
type Pointer []string

// Append returns a new pointer extended by token. The receiver is never
// modified, so pointers can be shared between operations safely.
func (p Pointer) Append(token string) Pointer {
	out := make(Pointer, len(p), len(p)+1)
	copy(out, p)
	return append(out, token)
}

// AppendIndex is Append for a sequence index.
func (p Pointer) AppendIndex(i int) Pointer {
	return p.Append(strconv.Itoa(i))
}

var tokenEscaper = strings.NewReplacer("~", "~0", "/", "~1")
var tokenUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// String renders p in RFC 6901 form, e.g. "/0/_source/title".
func (p Pointer) String() string {
	var sb strings.Builder
	for _, tok := range p {
		sb.WriteByte('/')
		sb.WriteString(tokenEscaper.Replace(tok))
	}
	return sb.String()
}

// ParsePointer parses an RFC 6901 pointer. The empty string is the root.
func ParsePointer(s string) (Pointer, error) {
	if s == "" {
		return Pointer{}, nil
	}
	if s[0] != '/' {
		return nil, &PointerError{Pointer: s, Reason: "must start with '/'"}
	}
	parts := strings.Split(s[1:], "/")
	out := make(Pointer, len(parts))
	for i, part := range parts {
		out[i] = tokenUnescaper.Replace(part)
	}
	return out, nil
}

// PointerError reports a malformed or unresolvable pointer.
type PointerError struct {
	Pointer string
	Reason  string
}

func (e *PointerError) Error() string {
	return "jsondiff: pointer " + strconv.Quote(e.Pointer) + ": " + e.Reason
}

// Operation is one edit step. Value is set for add and replace; FromValue is
// set for replace when original values are kept; From is set for move and
// copy.
type Operation struct {
	Op        OpType
	Path      Pointer
	From      Pointer
	Value     document.Value
	FromValue *document.Value
}

// MarshalJSON writes the operation with a stable key order:
// op, from, path, value, fromValue.
func (o Operation) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"op":`)
	if err := writeJSON(&buf, string(o.Op)); err != nil {
		return nil, err
	}
	if o.Op == OpMove || o.Op == OpCopy {
		buf.WriteString(`,"from":`)
		if err := writeJSON(&buf, o.From.String()); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`,"path":`)
	if err := writeJSON(&buf, o.Path.String()); err != nil {
		return nil, err
	}
	if o.Op == OpAdd || o.Op == OpReplace {
		buf.WriteString(`,"value":`)
		if err := writeJSON(&buf, o.Value); err != nil {
			return nil, err
		}
	}
	if o.Op == OpReplace && o.FromValue != nil {
		buf.WriteString(`,"fromValue":`)
		if err := writeJSON(&buf, *o.FromValue); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an operation in the form written by MarshalJSON.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var raw struct {
		Op        OpType          `json:"op"`
		Path      string          `json:"path"`
		From      string          `json:"from"`
		Value     json.RawMessage `json:"value"`
		FromValue json.RawMessage `json:"fromValue"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.Op.Valid() {
		return &OperationError{Op: raw.Op, Reason: "unknown operation"}
	}
	path, err := ParsePointer(raw.Path)
	if err != nil {
		return err
	}
	*o = Operation{Op: raw.Op, Path: path}
	if len(raw.Value) > 0 {
		if o.Value, err = document.Parse(raw.Value); err != nil {
			return err
		}
	}
	if len(raw.FromValue) > 0 {
		from, err := document.Parse(raw.FromValue)
		if err != nil {
			return err
		}
		o.FromValue = &from
	}
	if raw.From != "" {
		if o.From, err = ParsePointer(raw.From); err != nil {
			return err
		}
	}
	return nil
}

// OperationError reports an operation that cannot be decoded or applied.
type OperationError struct {
	Op     OpType
	Path   string
	Reason string
}

func (e *OperationError) Error() string {
	if e.Path == "" {
		return "jsondiff: " + string(e.Op) + ": " + e.Reason
	}
	return "jsondiff: " + string(e.Op) + " " + e.Path + ": " + e.Reason
}

func writeJSON(buf *bytes.Buffer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}
