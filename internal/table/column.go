// Package table provides the Arrow-backed columnar representation of the
// feature table used at the persistence boundary. It is a deliberately small
// layer: typed columns over Arrow arrays plus an ordered column collection,
// enough to hand the derived working set to the Parquet writer and back.
package table

import (
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Column provides a type-erased view of a typed column.
type Column interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	Array() arrow.Array
	Release()
}

// Typed is a named data column with an Apache Arrow backend.
type Typed[T any] struct {
	name  string
	array arrow.Array
}

// NewColumn creates a typed column from a slice of values. Supported element
// types are string, int64, float64 and bool.
func NewColumn[T any](name string, values []T, mem memory.Allocator) *Typed[T] {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	var arr arrow.Array

	switch v := any(values).(type) {
	case []string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, nil)
		arr = builder.NewArray()
	case []int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, nil)
		arr = builder.NewArray()
	case []float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, nil)
		arr = builder.NewArray()
	case []bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, nil)
		arr = builder.NewArray()
	default:
		panic(fmt.Sprintf("unsupported column type: %T", values))
	}

	return &Typed[T]{name: name, array: arr}
}

// Name returns the column name.
func (c *Typed[T]) Name() string {
	return c.name
}

// Len returns the number of rows in the column.
func (c *Typed[T]) Len() int {
	return c.array.Len()
}

// Values returns the data as a Go slice.
func (c *Typed[T]) Values() []T {
	result := make([]T, c.array.Len())

	switch arr := c.array.(type) {
	case *array.String:
		values := any(result).([]string)
		for i := 0; i < arr.Len(); i++ {
			values[i] = arr.Value(i)
		}
	case *array.Int64:
		values := any(result).([]int64)
		for i := 0; i < arr.Len(); i++ {
			values[i] = arr.Value(i)
		}
	case *array.Float64:
		values := any(result).([]float64)
		for i := 0; i < arr.Len(); i++ {
			values[i] = arr.Value(i)
		}
	case *array.Boolean:
		values := any(result).([]bool)
		for i := 0; i < arr.Len(); i++ {
			values[i] = arr.Value(i)
		}
	default:
		panic(fmt.Sprintf("unsupported array type: %T", arr))
	}

	return result
}

// Value returns the value at the given index, or the zero value when the
// index is out of bounds.
func (c *Typed[T]) Value(index int) T {
	var result T
	if index < 0 || index >= c.array.Len() {
		return result
	}

	switch arr := c.array.(type) {
	case *array.String:
		if v, ok := any(&result).(*string); ok {
			*v = arr.Value(index)
		}
	case *array.Int64:
		if v, ok := any(&result).(*int64); ok {
			*v = arr.Value(index)
		}
	case *array.Float64:
		if v, ok := any(&result).(*float64); ok {
			*v = arr.Value(index)
		}
	case *array.Boolean:
		if v, ok := any(&result).(*bool); ok {
			*v = arr.Value(index)
		}
	}

	return result
}

// DataType returns the Arrow data type.
func (c *Typed[T]) DataType() arrow.DataType {
	return c.array.DataType()
}

// IsNull checks if the value at index is null.
func (c *Typed[T]) IsNull(index int) bool {
	return c.array.IsNull(index)
}

// String returns a string representation of the column.
func (c *Typed[T]) String() string {
	return fmt.Sprintf("Column[%s]: %s (len=%d)",
		reflect.TypeOf(new(T)).Elem().Name(), c.name, c.Len())
}

// Array returns the underlying Arrow array (retains a reference).
func (c *Typed[T]) Array() arrow.Array {
	if c.array != nil {
		c.array.Retain()
		return c.array
	}
	return nil
}

// Release releases the underlying Arrow memory.
func (c *Typed[T]) Release() {
	if c.array != nil {
		c.array.Release()
	}
}
