package domain

// Entity is an audited municipal body. Attribute rows for an entity live in
// the dataset partitions keyed by its ID; the fields here are the registry
// attributes used for peer grouping.
type Entity struct {
	ID       string
	Name     string
	District string
	// Population is nil when the registry row has no usable population value.
	Population *float64
}

// Metric is a computed per-entity scalar for one rule. Defined is false when
// the input was missing, the join failed, or the calculation degenerated
// (e.g. zero denominator); Reason says why.
type Metric struct {
	Value   float64
	Defined bool
	Reason  string
}

// DefinedMetric wraps a value in a defined Metric.
func DefinedMetric(v float64) Metric {
	return Metric{Value: v, Defined: true}
}

// UndefinedMetric records why no value could be computed.
func UndefinedMetric(reason string) Metric {
	return Metric{Reason: reason}
}
