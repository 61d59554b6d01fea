package vm

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Codecs: Json, Cbor and Yaml
// ---------------------------------------------------------------------------

// maxCodecDepth bounds nesting in both directions.
const maxCodecDepth = 512

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// codecKeys says which map keys an encoding accepts.
type codecKeys int

const (
	stringKeys codecKeys = iota
	scalarKeys
)

// ToNative converts v into plain Go data: nil, bool, int64, float64,
// string, []byte, []any and maps. Lists and maps are converted
// recursively; anything else throws TypeError.
func (interp *Interpreter) ToNative(v Value) (any, bool) {
	return interp.toNative(v, scalarKeys, 0)
}

func (interp *Interpreter) toNative(v Value, keys codecKeys, depth int) (any, bool) {
	if depth > maxCodecDepth {
		interp.Throw(interp.ValueErrorClass, "Value is too deeply nested")
		return nil, false
	}
	switch v.Kind() {
	case KindError:
		return nil, false
	case KindNull:
		return nil, true
	case KindBool:
		return v.AsBool(), true
	case KindInt:
		return v.AsInt(), true
	case KindFloat:
		return v.AsFloat(), true
	case KindString:
		return v.AsString(), true
	}

	switch obj := v.AsObject().(type) {
	case *BinaryObject:
		return obj.data, true
	case *ListObject:
		items := obj.snapshot()
		defer releaseAll(items)
		out := make([]any, len(items))
		for i, item := range items {
			x, ok := interp.toNative(item, keys, depth+1)
			if !ok {
				return nil, false
			}
			out[i] = x
		}
		return out, true
	case *MapObject:
		return interp.mapToNative(obj, keys, depth)
	}
	interp.Throw(interp.TypeErrorClass, "Cannot encode '"+v.GetClass(interp).Name()+"'")
	return nil, false
}

func (interp *Interpreter) mapToNative(m *MapObject, keys codecKeys, depth int) (any, bool) {
	mk, mv := m.snapshot()
	defer releaseAll(mk)
	defer releaseAll(mv)

	if keys == stringKeys {
		out := make(map[string]any, len(mk))
		for i := range mk {
			if !mk[i].IsString() {
				interp.Throw(interp.TypeErrorClass, "Map keys must be strings to encode")
				return nil, false
			}
			x, ok := interp.toNative(mv[i], keys, depth+1)
			if !ok {
				return nil, false
			}
			out[mk[i].AsString()] = x
		}
		return out, true
	}

	out := make(map[any]any, len(mk))
	for i := range mk {
		if mk[i].IsObject() {
			interp.Throw(interp.TypeErrorClass, "Map keys must be scalars to encode")
			return nil, false
		}
		k, ok := interp.toNative(mk[i], keys, depth+1)
		if !ok {
			return nil, false
		}
		x, ok := interp.toNative(mv[i], keys, depth+1)
		if !ok {
			return nil, false
		}
		out[k] = x
	}
	return out, true
}

// FromNative converts decoded Go data into a Value. Integers that do not
// fit an Int become Floats. Map entries are inserted in key order.
func (interp *Interpreter) FromNative(x any) Value {
	return interp.fromNative(x, 0)
}

func (interp *Interpreter) fromNative(x any, depth int) Value {
	if depth > maxCodecDepth {
		interp.Throw(interp.ValueErrorClass, "Value is too deeply nested")
		return ErrorValue()
	}
	switch x := x.(type) {
	case nil:
		return NullValue()
	case bool:
		return NewBool(x)
	case int:
		return NewInt(int64(x))
	case int64:
		return NewInt(x)
	case uint64:
		if x > math.MaxInt64 {
			return NewFloat(float64(x))
		}
		return NewInt(int64(x))
	case float32:
		return NewFloat(float64(x))
	case float64:
		return NewFloat(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return NewInt(n)
		}
		f, err := x.Float64()
		if err != nil {
			interp.Throw(interp.ValueErrorClass, "Invalid number: "+x.String())
			return ErrorValue()
		}
		return NewFloat(f)
	case string:
		return NewString(x)
	case []byte:
		return interp.NewBinary(x)
	case time.Time:
		return NewString(x.Format(time.RFC3339Nano))
	case []any:
		list := interp.NewList()
		l := list.AsObject().(*ListObject)
		for _, item := range x {
			v := interp.fromNative(item, depth+1)
			if v.IsError() {
				list.Release()
				return ErrorValue()
			}
			l.Append(v)
			v.Release()
		}
		return list
	case map[string]any:
		result := interp.NewMap()
		m := result.AsObject().(*MapObject)
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !interp.setNative(m, k, x[k], depth) {
				result.Release()
				return ErrorValue()
			}
		}
		return result
	case map[any]any:
		result := interp.NewMap()
		m := result.AsObject().(*MapObject)
		keys := make([]any, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j]) })
		for _, k := range keys {
			if !interp.setNative(m, k, x[k], depth) {
				result.Release()
				return ErrorValue()
			}
		}
		return result
	}
	interp.Throw(interp.ValueErrorClass, fmt.Sprintf("Cannot decode value of type %T", x))
	return ErrorValue()
}

func (interp *Interpreter) setNative(m *MapObject, k, item any, depth int) bool {
	key := interp.fromNative(k, depth+1)
	if key.IsError() {
		return false
	}
	defer key.Release()
	value := interp.fromNative(item, depth+1)
	if value.IsError() {
		return false
	}
	defer value.Release()
	return m.Set(interp, key, value)
}

// ---------------------------------------------------------------------------
// Codec Primitives
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerCodecPrimitives() {
	interp.registerJsonPrimitives()
	interp.registerCborPrimitives()
	interp.registerYamlPrimitives()
}

func (interp *Interpreter) registerJsonPrimitives() {
	c := interp.createValueClass("Json", interp.ObjectClass)

	// encode(value, indent) - indent is an optional string
	c.AddStaticMethod(interp, "encode", -2, func(interp *Interpreter, args []Value) Value {
		x, ok := interp.toNative(args[0], stringKeys, 0)
		if !ok {
			return ErrorValue()
		}
		var data []byte
		var err error
		if len(args) > 1 && !args[1].IsNull() {
			indent, ok := interp.ToStr(args[1])
			if !ok {
				return ErrorValue()
			}
			data, err = json.MarshalIndent(x, "", indent)
		} else {
			data, err = json.Marshal(x)
		}
		if err != nil {
			interp.Throw(interp.ValueErrorClass, "Unable to encode JSON: "+err.Error())
			return ErrorValue()
		}
		return NewString(string(data))
	})

	c.AddStaticMethod(interp, "decode", 1, func(interp *Interpreter, args []Value) Value {
		text, ok := interp.ToStr(args[0])
		if !ok {
			return ErrorValue()
		}
		dec := json.NewDecoder(strings.NewReader(text))
		dec.UseNumber()
		var x any
		if err := dec.Decode(&x); err != nil {
			interp.Throw(interp.ValueErrorClass, "Invalid JSON: "+err.Error())
			return ErrorValue()
		}
		if dec.More() {
			interp.Throw(interp.ValueErrorClass, "Invalid JSON: trailing data")
			return ErrorValue()
		}
		return interp.fromNative(x, 0)
	})
}

func (interp *Interpreter) registerCborPrimitives() {
	c := interp.createValueClass("Cbor", interp.ObjectClass)

	// encode(value) - canonical CBOR as Binary
	c.AddStaticMethod(interp, "encode", 1, func(interp *Interpreter, args []Value) Value {
		x, ok := interp.toNative(args[0], scalarKeys, 0)
		if !ok {
			return ErrorValue()
		}
		data, err := cborEncMode.Marshal(x)
		if err != nil {
			interp.Throw(interp.ValueErrorClass, "Unable to encode CBOR: "+err.Error())
			return ErrorValue()
		}
		return interp.NewBinary(data)
	})

	c.AddStaticMethod(interp, "decode", 1, func(interp *Interpreter, args []Value) Value {
		data, ok := interp.ToBinary(args[0])
		if !ok {
			return ErrorValue()
		}
		var x any
		if err := cbor.Unmarshal(data, &x); err != nil {
			interp.Throw(interp.ValueErrorClass, "Invalid CBOR: "+err.Error())
			return ErrorValue()
		}
		return interp.fromNative(x, 0)
	})
}

func (interp *Interpreter) registerYamlPrimitives() {
	c := interp.createValueClass("Yaml", interp.ObjectClass)

	c.AddStaticMethod(interp, "encode", 1, func(interp *Interpreter, args []Value) Value {
		x, ok := interp.toNative(args[0], scalarKeys, 0)
		if !ok {
			return ErrorValue()
		}
		data, err := yaml.Marshal(x)
		if err != nil {
			interp.Throw(interp.ValueErrorClass, "Unable to encode YAML: "+err.Error())
			return ErrorValue()
		}
		return NewString(string(data))
	})

	c.AddStaticMethod(interp, "decode", 1, func(interp *Interpreter, args []Value) Value {
		text, ok := interp.ToStr(args[0])
		if !ok {
			return ErrorValue()
		}
		var x any
		if err := yaml.Unmarshal([]byte(text), &x); err != nil {
			interp.Throw(interp.ValueErrorClass, "Invalid YAML: "+err.Error())
			return ErrorValue()
		}
		return interp.fromNative(x, 0)
	})
}
