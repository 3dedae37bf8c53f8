package domain

import "reflect"

// BeanKey identifies a bean by its Go type and an optional qualifier.
// Keys are immutable and comparable, so they are used directly as map keys.
type BeanKey struct {
	typ       reflect.Type
	qualifier string
}

// NewBeanKey creates a key for the given type and qualifier. Empty qualifier means unqualified.
func NewBeanKey(t reflect.Type, qualifier string) BeanKey {
	return BeanKey{typ: t, qualifier: qualifier}
}

// KeyOf creates a key for type parameter T. For interfaces pass the interface type itself,
// e.g. KeyOf[Pinger]("eu").
func KeyOf[T any](qualifier string) BeanKey {
	return NewBeanKey(reflect.TypeFor[T](), qualifier)
}

// Type returns the bean type.
func (k BeanKey) Type() reflect.Type {
	return k.typ
}

// Qualifier returns the qualifier, empty for unqualified keys.
func (k BeanKey) Qualifier() string {
	return k.qualifier
}

// IsZero reports whether the key carries no type.
func (k BeanKey) IsZero() bool {
	return k.typ == nil
}

// Unqualified returns the same type without a qualifier.
func (k BeanKey) Unqualified() BeanKey {
	return BeanKey{typ: k.typ}
}

// TypeName is the wire identity of the bean type (the service type in the registry).
func (k BeanKey) TypeName() string {
	return TypeName(k.typ)
}

// String renders the key as TypeName or TypeName[qualifier].
func (k BeanKey) String() string {
	if k.qualifier == "" {
		return k.TypeName()
	}
	return k.TypeName() + "[" + k.qualifier + "]"
}

// TypeName returns pkgpath.Name for named types and the reflect string form otherwise.
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}
