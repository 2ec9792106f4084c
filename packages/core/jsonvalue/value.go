package jsonvalue

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// ErrInvalid is returned by Parse when the input is not well formed JSON.
var ErrInvalid = errors.New("invalid JSON")

// Kind is the type tag of a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Object
	Array
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Object:
		return "object"
	case Array:
		return "array"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Member is a single key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

// Value is a JSON value. The zero Value is JSON null.
type Value struct {
	kind    Kind
	boolean bool
	number  float64
	str     string
	members []Member
	elems   []Value
}

// NewNull returns JSON null.
func NewNull() Value { return Value{} }

// NewBool returns a JSON boolean.
func NewBool(b bool) Value { return Value{kind: Bool, boolean: b} }

// NewNumber returns a JSON number.
func NewNumber(f float64) Value { return Value{kind: Number, number: f} }

// NewString returns a JSON string.
func NewString(s string) Value { return Value{kind: String, str: s} }

// NewArray returns a JSON array holding elems in order.
func NewArray(elems ...Value) Value {
	return Value{kind: Array, elems: append([]Value{}, elems...)}
}

// NewObject returns a JSON object holding members in enumeration order:
// array-index keys ("0", "1", "42") first in ascending numeric order, then
// every other key in insertion order. A repeated key replaces the earlier
// value but keeps the earlier position.
func NewObject(members ...Member) Value {
	v := Value{kind: Object, members: make([]Member, 0, len(members))}
	for _, m := range members {
		v.members = setMember(v.members, m.Key, m.Value)
	}
	return v
}

// EmptyObject returns {}.
func EmptyObject() Value { return Value{kind: Object, members: []Member{}} }

// Parse parses JSON text into a Value, preserving object member order.
func Parse(text string) (Value, error) {
	if !gjson.Valid(text) {
		return Value{}, ErrInvalid
	}
	return fromResult(gjson.Parse(text)), nil
}

// ParseBytes is Parse for a byte slice.
func ParseBytes(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return Value{}, ErrInvalid
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

// MustParse is like Parse but panics on invalid input. Meant for tests and
// package level literals.
func MustParse(text string) Value {
	v, err := Parse(text)
	if err != nil {
		panic(fmt.Sprintf("jsonvalue: MustParse(%q): %v", text, err))
	}
	return v
}

func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return NewNull()
	case gjson.False:
		return NewBool(false)
	case gjson.True:
		return NewBool(true)
	case gjson.Number:
		return NewNumber(r.Num)
	case gjson.String:
		return NewString(r.Str)
	}

	if r.IsArray() {
		v := Value{kind: Array, elems: []Value{}}
		r.ForEach(func(_, elem gjson.Result) bool {
			v.elems = append(v.elems, fromResult(elem))
			return true
		})
		return v
	}

	v := EmptyObject()
	r.ForEach(func(key, member gjson.Result) bool {
		v.members = setMember(v.members, key.Str, fromResult(member))
		return true
	})
	return v
}

func setMember(members []Member, key string, value Value) []Member {
	for i := range members {
		if members[i].Key == key {
			members[i].Value = value
			return members
		}
	}
	m := Member{Key: key, Value: value}
	idx, ok := arrayIndex(key)
	if !ok {
		return append(members, m)
	}

	// Index keys form a sorted prefix of members.
	pos := 0
	for pos < len(members) {
		other, isIndex := arrayIndex(members[pos].Key)
		if !isIndex || other > idx {
			break
		}
		pos++
	}
	members = append(members, Member{})
	copy(members[pos+1:], members[pos:])
	members[pos] = m
	return members
}

// arrayIndex reports whether key is a canonical array index: decimal digits
// without a leading zero, below 2^32-1.
func arrayIndex(key string) (uint64, bool) {
	if key == "" || len(key) > 10 || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(key, 10, 64)
	if err != nil || n >= 1<<32-1 {
		return 0, false
	}
	return n, true
}

// Kind returns the type tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == Null }

// Bool returns the boolean held by v, false for any other kind.
func (v Value) Bool() bool { return v.kind == Bool && v.boolean }

// Float returns the number held by v, 0 for any other kind.
func (v Value) Float() float64 {
	if v.kind != Number {
		return 0
	}
	return v.number
}

// Str returns the string held by v, "" for any other kind. Use String for
// the textual conversion of an arbitrary value.
func (v Value) Str() string {
	if v.kind != String {
		return ""
	}
	return v.str
}

// Members returns a copy of the members of an object, nil for other kinds.
func (v Value) Members() []Member {
	if v.kind != Object {
		return nil
	}
	return append([]Member{}, v.members...)
}

// Elements returns a copy of the elements of an array, nil for other kinds.
func (v Value) Elements() []Value {
	if v.kind != Array {
		return nil
	}
	return append([]Value{}, v.elems...)
}

// Get returns the member called key of an object.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Len returns the number of members of an object, elements of an array or
// bytes of a string. It is 0 for every other kind.
func (v Value) Len() int {
	switch v.kind {
	case Object:
		return len(v.members)
	case Array:
		return len(v.elems)
	case String:
		return len(v.str)
	default:
		return 0
	}
}

// Truthy reports whether v would be considered true in a boolean context:
// everything except null, false, 0 and "".
func (v Value) Truthy() bool {
	switch v.kind {
	case Null:
		return false
	case Bool:
		return v.boolean
	case Number:
		return v.number != 0
	case String:
		return v.str != ""
	default:
		return true
	}
}

// Keys returns the enumerable keys of v in order: member keys for an object
// (index-like keys first, see NewObject),
// indices for an array, character indices for a string and nothing for the
// remaining kinds.
func (v Value) Keys() []string {
	switch v.kind {
	case Object:
		keys := make([]string, 0, len(v.members))
		for _, m := range v.members {
			keys = append(keys, m.Key)
		}
		return keys
	case Array:
		keys := make([]string, 0, len(v.elems))
		for i := range v.elems {
			keys = append(keys, strconv.Itoa(i))
		}
		return keys
	case String:
		runes := []rune(v.str)
		keys := make([]string, 0, len(runes))
		for i := range runes {
			keys = append(keys, strconv.Itoa(i))
		}
		return keys
	default:
		return nil
	}
}

// Index returns the value found under one of the keys returned by Keys.
func (v Value) Index(key string) (Value, bool) {
	switch v.kind {
	case Object:
		return v.Get(key)
	case Array:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(v.elems) {
			return Value{}, false
		}
		return v.elems[i], true
	case String:
		runes := []rune(v.str)
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(runes) {
			return Value{}, false
		}
		return NewString(string(runes[i])), true
	default:
		return Value{}, false
	}
}

// Equal reports whether v and other are structurally identical, member
// order included.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case Null:
		return true
	case Bool:
		return v.boolean == other.boolean
	case Number:
		return v.number == other.number
	case String:
		return v.str == other.str
	case Array:
		if len(v.elems) != len(other.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(other.elems[i]) {
				return false
			}
		}
		return true
	default:
		if len(v.members) != len(other.members) {
			return false
		}
		for i := range v.members {
			if v.members[i].Key != other.members[i].Key || !v.members[i].Value.Equal(other.members[i].Value) {
				return false
			}
		}
		return true
	}
}
