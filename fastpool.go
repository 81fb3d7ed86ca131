package pool

// NewFast builds a pool with the disposal hook disabled, for element types
// with no cleanup to perform. It is otherwise identical to New; any
// WithDisposer option passed in opts is overridden, since disposal is
// unconditionally a no-op for a fast pool.
func NewFast[T any](factory func() T, opts ...PoolOption[T]) *Pool[T] {
	opts = append(append([]PoolOption[T]{}, opts...), WithDisposer[T](noopDisposer[T]))
	return New(factory, opts...)
}
