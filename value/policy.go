// Package value enumerates the derivations of a parse forest.
package value

// Policy controls which derivations are produced and receives them.
type Policy interface {
	// WithAmbiguous accepts forests with more than one derivation.
	WithAmbiguous() bool
	// WithNull accepts a parse of the empty input.
	WithNull() bool
	// WithHighRankOnly keeps only the best ranked alternatives of each node.
	WithHighRankOnly() bool
	// WithOrderByRank enumerates alternatives best rank first.
	WithOrderByRank() bool
	// MaxParses bounds the number of values; 0 means no bound.
	MaxParses() int
	SetResult(v any)
	Result() any
}

// Options is a Policy with fixed flags that collects every result.
type Options struct {
	Ambiguous    bool
	Null         bool
	HighRankOnly bool
	OrderByRank  bool
	Max          int

	results []any
}

func (o *Options) WithAmbiguous() bool { return o.Ambiguous }
func (o *Options) WithNull() bool { return o.Null }
func (o *Options) WithHighRankOnly() bool { return o.HighRankOnly }
func (o *Options) WithOrderByRank() bool { return o.OrderByRank }
func (o *Options) MaxParses() int { return o.Max }

func (o *Options) SetResult(v any) { o.results = append(o.results, v) }

// Result returns the first value produced, or nil.
func (o *Options) Result() any {
	if len(o.results) == 0 {
		return nil
	}
	return o.results[0]
}

// Results returns every value produced, in order.
func (o *Options) Results() []any { return o.results }
