package domain

// Method is the outlier detection method behind a Bounds value.
type Method int

const (
	MethodIQR Method = iota
	MethodZScore
)

func (m Method) String() string {
	if m == MethodZScore {
		return "zscore"
	}
	return "iqr"
}

// Bounds is the acceptance interval computed once per cohort per rule,
// together with the diagnostics needed to re-derive it. Q1/Q3/IQR are set
// for MethodIQR, Mean/Std for MethodZScore.
type Bounds struct {
	Method Method
	Lower  float64
	Upper  float64
	Param  float64
	N      int

	Q1  float64
	Q3  float64
	IQR float64

	Mean float64
	Std  float64
}

// BoundSide says which bound a flagged value crossed.
type BoundSide int

const (
	BoundLower BoundSide = iota
	BoundUpper
)

func (b BoundSide) String() string {
	if b == BoundUpper {
		return "above upper bound"
	}
	return "below lower bound"
}

// Finding is one flagged anomaly. Immutable once built; statistical findings
// carry the full Bounds diagnostics, check findings leave Bounds nil.
type Finding struct {
	EntityID   string
	EntityName string
	District   string

	RuleID      string
	Part        string
	Severity    Severity
	CheckType   string
	Description string

	// Detail is the rendered narrative with every value needed to re-derive
	// the flag.
	Detail string

	Value      float64
	Bounds     *Bounds
	Cohort     string
	CohortSize int
	Crossed    BoundSide
}
