package eeprom

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// Var is a wear-leveled variable of a fixed-size type.
//
// T must have a fixed encoded size in the sense of [binary.Size]: integers,
// floats, bools, arrays and structs of those with exported fields. Blank (_)
// fields are allowed and stored as zero. Values are
// stored little-endian without padding, one block byte per encoded byte.
type Var[T any] struct {
	store *Store
	base  int
	size  int
}

// NewVar binds a variable of type T to the block at base.
func NewVar[T any](s *Store, base int) (*Var[T], error) {
	var zero T

	size := binary.Size(zero)
	if size <= 0 {
		return nil, fmt.Errorf("%T has no fixed encoded size: %w", zero, ErrInvalidInput)
	}

	if field, ok := unexportedField(reflect.TypeOf(zero)); ok {
		return nil, fmt.Errorf("%T has unexported field %s that cannot be decoded: %w", zero, field, ErrInvalidInput)
	}

	err := s.check(OpsBlock, base, size)
	if err != nil {
		return nil, err
	}

	return &Var[T]{store: s, base: base, size: size}, nil
}

// Base returns the offset of the first slot-group.
func (v *Var[T]) Base() int { return v.base }

// Size returns the number of logical bytes.
func (v *Var[T]) Size() int { return v.size }

// Init initializes the backing block and stores val.
func (v *Var[T]) Init(val T) error {
	buf, err := v.encode(val)
	if err != nil {
		return err
	}

	return v.store.InitBlock(v.base, buf)
}

// Get returns the stored value.
func (v *Var[T]) Get() (T, error) {
	var val T

	buf := make([]byte, v.size)

	err := v.store.GetBlock(v.base, buf)
	if err != nil {
		return val, err
	}

	_, err = binary.Decode(buf, binary.LittleEndian, &val)
	if err != nil {
		return val, fmt.Errorf("decode %T: %w", val, err)
	}

	return val, nil
}

// Set stores val, rewriting only the bytes that changed.
// It returns the number of bytes physically rewritten.
func (v *Var[T]) Set(val T) (int, error) {
	buf, err := v.encode(val)
	if err != nil {
		return 0, err
	}

	return v.store.SetBlock(v.base, buf)
}

func (v *Var[T]) encode(val T) ([]byte, error) {
	buf, err := binary.Append(make([]byte, 0, v.size), binary.LittleEndian, val)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", val, err)
	}

	return buf, nil
}

// unexportedField returns the path of the first non-blank unexported struct
// field reachable from t. binary.Decode panics when it has to set one.
func unexportedField(t reflect.Type) (string, bool) {
	switch t.Kind() {
	case reflect.Array, reflect.Pointer:
		return unexportedField(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if f.Name == "_" {
				continue
			}

			if !f.IsExported() {
				return f.Name, true
			}

			if inner, ok := unexportedField(f.Type); ok {
				return f.Name + "." + inner, true
			}
		}
	default:
	}

	return "", false
}
