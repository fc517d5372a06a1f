package schema

import "reflect"

// Accessor reads and writes a single field's value on a reflected message
// instance, insulating codecs from direct reflect.Value plumbing. This is
// the "TypeHelper" collaborator of spec.md §2/§C2.
type Accessor struct {
	fd *FieldDescriptor
}

// AccessorFor returns an Accessor bound to fd.
func AccessorFor(fd *FieldDescriptor) Accessor {
	return Accessor{fd: fd}
}

func (a Accessor) field(msg reflect.Value) reflect.Value {
	for msg.Kind() == reflect.Ptr {
		msg = msg.Elem()
	}
	return msg.Field(a.fd.index)
}

// Get returns the field's current Go value, or nil if an optional/pointer
// field is unset.
func (a Accessor) Get(msg reflect.Value) any {
	f := a.field(msg)
	if f.Kind() == reflect.Ptr {
		if f.IsNil() {
			return nil
		}
		return f.Elem().Interface()
	}
	return f.Interface()
}

// Set assigns v to the field, allocating a pointer if the field is
// optional and currently nil.
func (a Accessor) Set(msg reflect.Value, v any) {
	f := a.field(msg)
	if f.Kind() == reflect.Ptr {
		elemType := f.Type().Elem()
		p := reflect.New(elemType)
		if v != nil {
			p.Elem().Set(reflect.ValueOf(v).Convert(elemType))
		}
		f.Set(p)
		return
	}
	f.Set(reflect.ValueOf(v).Convert(f.Type()))
}

// Clear sets an optional field back to its absent (nil) state. It is a
// no-op for required/repeated fields.
func (a Accessor) Clear(msg reflect.Value) {
	f := a.field(msg)
	if f.Kind() == reflect.Ptr {
		f.Set(reflect.Zero(f.Type()))
	}
}

// Len returns the number of elements in a repeated field.
func (a Accessor) Len(msg reflect.Value) int {
	return a.field(msg).Len()
}

// Index returns the i-th element of a repeated field.
func (a Accessor) Index(msg reflect.Value, i int) any {
	return a.field(msg).Index(i).Interface()
}

// SetSlice replaces a repeated field's contents with vals.
func (a Accessor) SetSlice(msg reflect.Value, vals []any) {
	f := a.field(msg)
	elemType := f.Type().Elem()
	s := reflect.MakeSlice(f.Type(), len(vals), len(vals))
	for i, v := range vals {
		s.Index(i).Set(reflect.ValueOf(v).Convert(elemType))
	}
	f.Set(s)
}

// Message returns the (possibly nested pointer) field as an addressable
// struct value, for recursing into a nested message field.
func (a Accessor) Message(msg reflect.Value) reflect.Value {
	f := a.field(msg)
	if f.Kind() == reflect.Ptr {
		if f.IsNil() {
			f.Set(reflect.New(f.Type().Elem()))
		}
		return f.Elem()
	}
	return f
}
