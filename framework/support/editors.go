package support

import (
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cast"

	"github.com/km-arc/go-beans/framework/container"
)

// DefaultEditors returns cast-backed editors for the common literal
// targets: strings, bools, sized ints and floats, durations, times,
// string slices and string maps.
func DefaultEditors() map[reflect.Type]container.TypeEditor {
	return map[reflect.Type]container.TypeEditor{
		reflect.TypeOf(""):                  edit(cast.ToStringE),
		reflect.TypeOf(false):               edit(cast.ToBoolE),
		reflect.TypeOf(int(0)):              edit(cast.ToIntE),
		reflect.TypeOf(int8(0)):             edit(cast.ToInt8E),
		reflect.TypeOf(int16(0)):            edit(cast.ToInt16E),
		reflect.TypeOf(int32(0)):            edit(cast.ToInt32E),
		reflect.TypeOf(int64(0)):            edit(cast.ToInt64E),
		reflect.TypeOf(uint(0)):             edit(cast.ToUintE),
		reflect.TypeOf(uint8(0)):            edit(cast.ToUint8E),
		reflect.TypeOf(uint16(0)):           edit(cast.ToUint16E),
		reflect.TypeOf(uint32(0)):           edit(cast.ToUint32E),
		reflect.TypeOf(uint64(0)):           edit(cast.ToUint64E),
		reflect.TypeOf(float32(0)):          edit(cast.ToFloat32E),
		reflect.TypeOf(float64(0)):          edit(cast.ToFloat64E),
		reflect.TypeOf(time.Duration(0)):    edit(cast.ToDurationE),
		reflect.TypeOf(time.Time{}):         edit(cast.ToTimeE),
		reflect.TypeOf([]string(nil)):       edit(cast.ToStringSliceE),
		reflect.TypeOf([]int(nil)):          edit(cast.ToIntSliceE),
		reflect.TypeOf(map[string]string{}): edit(cast.ToStringMapStringE),
		reflect.TypeOf(map[string]any{}):    edit(cast.ToStringMapE),
	}
}

// RegisterDefaultEditors installs DefaultEditors on f without replacing
// editors already registered.
func RegisterDefaultEditors(f *container.Factory) {
	existing := f.CustomEditors()
	for t, e := range DefaultEditors() {
		if _, ok := existing[t]; !ok {
			f.RegisterCustomEditor(t, e)
		}
	}
}

func edit[T any](fn func(any) (T, error)) container.TypeEditor {
	return container.EditorFunc(func(v any) (any, error) {
		return fn(v)
	})
}

// convert turns value into a reflect.Value assignable to target, using the
// factory's custom editors first and the defaults second.
func convert(f *container.Factory, value any, target reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(target), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(target) {
		return rv, nil
	}

	editor, ok := f.CustomEditor(target)
	if !ok {
		editor, ok = defaultEditors[target]
	}
	if !ok && target.Kind() != reflect.Interface {
		// named types such as `type Level string`
		if base, found := defaultEditors[basicType(target.Kind())]; found {
			editor, ok = base, true
		}
	}
	if ok {
		converted, err := editor.Convert(value)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("convert %T to %v: %w", value, target, err)
		}
		cv := reflect.ValueOf(converted)
		if cv.Type().AssignableTo(target) {
			return cv, nil
		}
		if cv.Type().ConvertibleTo(target) {
			return cv.Convert(target), nil
		}
		return reflect.Value{}, fmt.Errorf("editor for %v returned %T", target, converted)
	}

	return reflect.Value{}, fmt.Errorf("cannot convert %T to %v", value, target)
}

var defaultEditors = DefaultEditors()

func basicType(k reflect.Kind) reflect.Type {
	switch k {
	case reflect.String:
		return reflect.TypeOf("")
	case reflect.Bool:
		return reflect.TypeOf(false)
	case reflect.Int:
		return reflect.TypeOf(int(0))
	case reflect.Int8:
		return reflect.TypeOf(int8(0))
	case reflect.Int16:
		return reflect.TypeOf(int16(0))
	case reflect.Int32:
		return reflect.TypeOf(int32(0))
	case reflect.Int64:
		return reflect.TypeOf(int64(0))
	case reflect.Uint:
		return reflect.TypeOf(uint(0))
	case reflect.Uint8:
		return reflect.TypeOf(uint8(0))
	case reflect.Uint16:
		return reflect.TypeOf(uint16(0))
	case reflect.Uint32:
		return reflect.TypeOf(uint32(0))
	case reflect.Uint64:
		return reflect.TypeOf(uint64(0))
	case reflect.Float32:
		return reflect.TypeOf(float32(0))
	case reflect.Float64:
		return reflect.TypeOf(float64(0))
	}
	return nil
}
