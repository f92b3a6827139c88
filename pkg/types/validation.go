package types

// ValidationLogEntry is one audit record of a validation call.
type ValidationLogEntry struct {
	ID             string `json:"id"`
	Timestamp      int64  `json:"timestamp"`
	ValidationType string `json:"validation_type"`
	Passed         bool   `json:"passed"`
	Details        string `json:"details"`
}

// ValidationStats aggregates validation audit records.
type ValidationStats struct {
	Total    int                        `json:"total"`
	Passed   int                        `json:"passed"`
	Failed   int                        `json:"failed"`
	PassRate float64                    `json:"pass_rate"`
	ByType   map[string]ValidationCount `json:"by_type"`
}

// ValidationCount holds pass/fail counts for one validation type.
type ValidationCount struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	PassRate float64 `json:"pass_rate"`
}
