package config

// RouterCfg holds routing and merging behaviour switches.
type RouterCfg struct {
	CaseSensitiveIdentifiers bool `json:"case_sensitive_identifiers" toml:"case_sensitive_identifiers" yaml:"case_sensitive_identifiers"`
	PrefetchConcurrently     bool `json:"prefetch_concurrently" toml:"prefetch_concurrently" yaml:"prefetch_concurrently"`
	AssertOrdering           bool `json:"assert_ordering" toml:"assert_ordering" yaml:"assert_ordering"`
	MaxCartesianUnits        int  `json:"max_cartesian_units" toml:"max_cartesian_units" yaml:"max_cartesian_units"`

	ConnectRetries int `json:"connect_retries" toml:"connect_retries" yaml:"connect_retries"`

	// TimeQuantiles enables routing time digests, e.g. ["0.5", "0.99"].
	TimeQuantiles []string `json:"time_quantiles" toml:"time_quantiles" yaml:"time_quantiles"`
}
