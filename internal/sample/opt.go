package sample

import "fmt"

// Opt is an optional value. The zero value is absent.
//
// Comparisons through Is never match an absent value, which keeps the
// "absent compares as never-matching" behaviour of chart cells without
// a reserved sentinel in the value domain.
type Opt[T comparable] struct {
	v  T
	ok bool
}

// Some wraps a present value.
func Some[T comparable](v T) Opt[T] {
	return Opt[T]{v: v, ok: true}
}

// None returns an absent value.
func None[T comparable]() Opt[T] {
	return Opt[T]{}
}

func (o Opt[T]) Ok() bool { return o.ok }

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) { return o.v, o.ok }

// Or returns the value, or def when absent.
func (o Opt[T]) Or(def T) T {
	if o.ok {
		return o.v
	}
	return def
}

// Is reports whether o is present and equal to v.
func (o Opt[T]) Is(v T) bool { return o.ok && o.v == v }

// Same reports whether both are present and equal.
func (o Opt[T]) Same(other Opt[T]) bool {
	return o.ok && other.ok && o.v == other.v
}

// Clear makes o absent.
func (o *Opt[T]) Clear() { *o = Opt[T]{} }

// Set makes o present with v.
func (o *Opt[T]) Set(v T) { *o = Opt[T]{v: v, ok: true} }

// Fill copies other into o when o is absent.
func (o *Opt[T]) Fill(other Opt[T]) {
	if !o.ok && other.ok {
		*o = other
	}
}

func (o Opt[T]) String() string {
	if !o.ok {
		return "-"
	}
	return fmt.Sprint(o.v)
}
