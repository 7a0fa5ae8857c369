package storage

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/structpb"
)

// Attribute names consulted on dynamic items, in order of preference.
const (
	ClassIDAttr = "classId"
	IDAttr      = "id"
)

// Field names consulted on protobuf messages, in order of preference.
var protoIdentityFields = []protoreflect.Name{"class_id", "id"}

// HasIdentityKey is implemented by items that decide their own identity.
// Returning false sends the item down the structural path.
type HasIdentityKey interface {
	IdentityKey() (string, bool)
}

// HasClassID is implemented by items identified by a class ID.
// An empty class ID counts as absent.
type HasClassID interface {
	ClassID() string
}

// HasID is implemented by items identified by an ID.
// An empty ID counts as absent.
type HasID interface {
	ID() string
}

// Tagged wraps a value with an explicit keyed or unkeyed tag.
type Tagged struct {
	Value any
	key   string
	keyed bool
}

// Keyed tags value with an identity key.
func Keyed(key string, value any) Tagged {
	return Tagged{Value: value, key: key, keyed: true}
}

// Unkeyed tags value as having no identity, even if it would otherwise
// expose one. It is fingerprinted by its inner value.
func Unkeyed(value any) Tagged {
	return Tagged{Value: value}
}

// IdentityKey implements HasIdentityKey.
func (t Tagged) IdentityKey() (string, bool) {
	if !t.keyed || t.key == "" {
		return "", false
	}
	return t.key, true
}

// IdentityKeyOf returns the identity key of item, if it has one.
func IdentityKeyOf(item any) (string, bool) {
	if isNil(item) {
		return "", false
	}

	if v, ok := item.(HasIdentityKey); ok {
		return v.IdentityKey()
	}

	if v, ok := item.(HasClassID); ok {
		if key := v.ClassID(); key != "" {
			return key, true
		}
	}
	if v, ok := item.(HasID); ok {
		if key := v.ID(); key != "" {
			return key, true
		}
	}

	switch v := item.(type) {
	case map[string]any:
		for _, attr := range []string{ClassIDAttr, IDAttr} {
			if key, ok := coerceKey(v[attr]); ok {
				return key, true
			}
		}
	case *structpb.Struct:
		for _, attr := range []string{ClassIDAttr, IDAttr} {
			if f, exists := v.GetFields()[attr]; exists {
				if key, ok := coerceKey(f.AsInterface()); ok {
					return key, true
				}
			}
		}
	case proto.Message:
		return protoIdentityKey(v)
	}
	return "", false
}

func protoIdentityKey(m proto.Message) (string, bool) {
	msg := m.ProtoReflect()
	if !msg.IsValid() {
		return "", false
	}
	fields := msg.Descriptor().Fields()
	for _, name := range protoIdentityFields {
		fd := fields.ByName(name)
		if fd == nil || fd.IsList() || fd.IsMap() || fd.Message() != nil {
			continue
		}
		if !msg.Has(fd) {
			continue
		}
		if key, ok := coerceKey(msg.Get(fd).Interface()); ok {
			return key, true
		}
	}
	return "", false
}

// coerceKey turns an attribute value into a key. Falsy values (nil, empty
// string, false, zero, NaN) are not keys.
func coerceKey(v any) (string, bool) {
	if isNil(v) {
		return "", false
	}

	var key string
	switch x := v.(type) {
	case string:
		key = x
	case []byte:
		key = string(x)
	case bool:
		if !x {
			return "", false
		}
		key = "true"
	case int:
		key = formatInt(int64(x))
	case int8:
		key = formatInt(int64(x))
	case int16:
		key = formatInt(int64(x))
	case int32:
		key = formatInt(int64(x))
	case int64:
		key = formatInt(x)
	case uint:
		key = formatUint(uint64(x))
	case uint8:
		key = formatUint(uint64(x))
	case uint16:
		key = formatUint(uint64(x))
	case uint32:
		key = formatUint(uint64(x))
	case uint64:
		key = formatUint(x)
	case float32:
		key = formatFloat(float64(x), 32)
	case float64:
		key = formatFloat(x, 64)
	case protoreflect.EnumNumber:
		key = formatInt(int64(x))
	case json.Number:
		f, err := x.Float64()
		if err == nil && (f == 0 || math.IsNaN(f)) {
			return "", false
		}
		key = x.String()
	default:
		// Covers fmt.Stringer; fmt recovers from panicking String methods.
		key = fmt.Sprint(x)
	}
	if key == "" {
		return "", false
	}
	return key, true
}

// isNil reports whether v is nil or a nil pointer, map, slice, func,
// channel or interface. Methods are never called on such values.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func formatInt(i int64) string {
	if i == 0 {
		return ""
	}
	return strconv.FormatInt(i, 10)
}

func formatUint(u uint64) string {
	if u == 0 {
		return ""
	}
	return strconv.FormatUint(u, 10)
}

func formatFloat(f float64, bits int) string {
	if f == 0 || math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}
