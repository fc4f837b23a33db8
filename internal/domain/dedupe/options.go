package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithExpectedSize presizes the fingerprint set for n rows.
func WithExpectedSize(n int) Option {
	return func(d *inMemoryDeduper) {
		d.expected = n
	}
}
