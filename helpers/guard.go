package helpers

import (
	"reflect"
	"time"
)

// StrPanic panics with panicMessage if p is empty; otherwise returns p.
//
// Called from constructors that need a non-empty name or URL (adapters.ServiceRegistryHTTP,
// service.NewRemotingDispatcher, myredis.NewServiceRegistry).
func StrPanic(p string, panicMessage string) string {
	if p == "" {
		panic(panicMessage)
	}
	return p
}

// NilPanic panics with panicMessage if v is nil, including typed nil pointers, slices, maps, chans,
// funcs and interfaces; otherwise returns v unchanged.
//
// Called from every service and adapter constructor when validating required dependencies.
func NilPanic[T any](v T, panicMessage string) T {
	if isNil(v) {
		panic(panicMessage)
	}
	return v
}

// DurationPanic panics with panicMessage if d is not positive; otherwise returns d.
//
// Called from constructors of background loops (registry client renewal, bean state worker, reaper).
func DurationPanic(d time.Duration, panicMessage string) time.Duration {
	if d <= 0 {
		panic(panicMessage)
	}
	return d
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
