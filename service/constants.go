package service

const (
	MaxTenureMonths    = 600 // 50 años
	MaxComparedTenures = 24  // máximo de plazos por comparación

	// Cotas que mantienen finitos los cálculos en float64
	MaxPrincipalAmount = 1e12
	MaxInterestRate    = 1e6 // % anual

	scheduleCachePrefix = "schedule:"
)
