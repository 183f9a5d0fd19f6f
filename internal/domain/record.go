package domain

// Record is implemented by every editable model. From returns a new value of
// the same concrete type with the fields named in patch overridden and every
// other field copied from the receiver. The receiver is never modified.
//
// Records are compared by identity (pointer equality) when a Sequence looks
// for an element, hence the comparable constraint.
type Record[T any, P any] interface {
	comparable
	From(patch P) T
}

// Ptr returns a pointer to v. It is the usual way to name a field in a patch:
//
//	c.From(CustomerPatch{Name: domain.Ptr("ACME")})
func Ptr[T any](v T) *T {
	return &v
}
