package cache

// ScopedKeyer prefixes every key of an inner Keyer. The server uses it to keep
// its entries apart from CLI entries when both share a Redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (the default keyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SweepKey returns the prefixed sweep key.
func (k *ScopedKeyer) SweepKey(lengths [4]float64, opts SweepKeyOpts) string {
	return k.prefix + k.inner.SweepKey(lengths, opts)
}

// ArtifactKey returns the prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(sweepHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(sweepHash, opts)
}
