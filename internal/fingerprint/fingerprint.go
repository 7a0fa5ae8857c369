package fingerprint

import (
	"encoding"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strings"

	"google.golang.org/protobuf/proto"
)

// DefaultSeparator joins sequence elements.
const DefaultSeparator = "*"

// Fingerprinted is implemented by values that supply their own structural key.
type Fingerprinted interface {
	Fingerprint() string
}

// Options controls how fingerprints are produced.
type Options struct {
	// Separator joins the elements of slices and arrays. Empty means DefaultSeparator.
	Separator string
	// Digest replaces the fingerprint text with its CIDv1 string.
	Digest bool
}

// Fingerprinter computes structural keys. It holds no mutable state and is
// safe for concurrent use.
type Fingerprinter struct {
	sep    string
	digest bool
}

// New creates a Fingerprinter from opts.
func New(opts Options) *Fingerprinter {
	sep := opts.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	return &Fingerprinter{
		sep:    sep,
		digest: opts.Digest,
	}
}

// Separator returns the sequence separator in use.
func (f *Fingerprinter) Separator() string {
	return f.sep
}

// Of returns the structural key for item. It never fails and always
// terminates, cyclic values included.
func (f *Fingerprinter) Of(item any) string {
	text := f.Text(item)
	if f.digest {
		return Digest(text)
	}
	return text
}

// Text returns the undigested fingerprint of item.
func (f *Fingerprinter) Text(item any) string {
	w := &walker{sep: f.sep, active: make(map[visit]struct{})}
	return w.value(reflect.ValueOf(item))
}

var (
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// visit identifies a slice, map or pointer currently being rendered.
type visit struct {
	ptr uintptr
	len int
	typ reflect.Type
}

// walker renders one value. active holds the references on the current
// path; meeting one again renders it as an empty element.
type walker struct {
	sep    string
	active map[visit]struct{}
}

func (w *walker) enter(v visit) bool {
	if _, ok := w.active[v]; ok {
		return false
	}
	w.active[v] = struct{}{}
	return true
}

func (w *walker) leave(v visit) {
	delete(w.active, v)
}

func (w *walker) value(rv reflect.Value) string {
	if !rv.IsValid() {
		return "<nil>"
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		if rv.IsNil() {
			if rv.Kind() == reflect.Slice {
				return ""
			}
			return "<nil>"
		}
	}
	if rv.Kind() == reflect.Interface {
		return w.value(rv.Elem())
	}

	if rv.CanInterface() {
		switch v := rv.Interface().(type) {
		case Fingerprinted:
			return v.Fingerprint()
		case []byte:
			return string(v)
		case proto.Message:
			return message(v)
		}
	}

	switch rv.Kind() {
	case reflect.Pointer:
		v := visit{ptr: rv.Pointer(), typ: rv.Type()}
		if !w.enter(v) {
			return ""
		}
		defer w.leave(v)
		return w.value(rv.Elem())
	case reflect.Slice, reflect.Array:
		return w.join(rv)
	case reflect.Func:
		return funcName(rv)
	case reflect.Map:
		return w.mapping(rv)
	case reflect.Struct:
		return w.structure(rv)
	default:
		return fmt.Sprint(rv)
	}
}

// join fingerprints every element and joins them with the separator.
// Elements containing the separator are not escaped.
func (w *walker) join(rv reflect.Value) string {
	if rv.Kind() == reflect.Slice && rv.Len() > 0 {
		v := visit{ptr: rv.Pointer(), len: rv.Len(), typ: rv.Type()}
		if !w.enter(v) {
			return ""
		}
		defer w.leave(v)
	}
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = w.value(rv.Index(i))
	}
	return strings.Join(parts, w.sep)
}

// mapping JSON encodes maps, so equal contents give equal keys whatever the
// map's type. Maps the encoder rejects are rendered entry by entry.
func (w *walker) mapping(rv reflect.Value) string {
	if rv.CanInterface() {
		if b, err := json.Marshal(rv.Interface()); err == nil {
			return string(b)
		}
	}

	v := visit{ptr: rv.Pointer(), typ: rv.Type()}
	if !w.enter(v) {
		return ""
	}
	defer w.leave(v)

	entries := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, w.value(iter.Key())+":"+w.value(iter.Value()))
	}
	sort.Strings(entries)
	return rv.Type().String() + "{" + strings.Join(entries, ",") + "}"
}

// structure qualifies structs by their type. Plain data structs are JSON
// encoded; structs with unexported state, or whose JSON form says nothing,
// are rendered field by field.
func (w *walker) structure(rv reflect.Value) string {
	t := rv.Type()
	if rv.CanInterface() && jsonEncodable(t) {
		if b, err := json.Marshal(rv.Interface()); err == nil && string(b) != "{}" {
			return t.String() + ":" + string(b)
		}
	}

	fields := make([]string, t.NumField())
	for i := range fields {
		fields[i] = t.Field(i).Name + ":" + w.value(rv.Field(i))
	}
	return t.String() + "{" + strings.Join(fields, ",") + "}"
}

// jsonEncodable reports whether encoding/json sees all of t's state.
func jsonEncodable(t reflect.Type) bool {
	if t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) {
		return true
	}
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			return false
		}
	}
	return true
}

func message(m proto.Message) string {
	name := string(m.ProtoReflect().Descriptor().FullName())
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(m)
	if err != nil {
		return fmt.Sprintf("%s:%v", name, m)
	}
	return name + ":" + hex.EncodeToString(b)
}

func funcName(rv reflect.Value) string {
	fn := runtime.FuncForPC(rv.Pointer())
	if fn == nil {
		return rv.Type().String()
	}
	return fn.Name() + " " + rv.Type().String()
}
