package domain

// TenureOption is the outcome of scheduling the same loan over one candidate tenure.
type TenureOption struct {
	Tenure      int
	Summary     ScheduleSummary
	Recommended bool
}

// TenureComparison ranks candidate tenures by total interest, cheapest first.
type TenureComparison struct {
	RecommendedTenure int
	Options           []TenureOption
}
