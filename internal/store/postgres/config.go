package postgres

// CertificateStoreConfig holds ledger-specific configuration for the PostgreSQL
// certificate store. Pool configuration is handled separately via PoolConfig.
type CertificateStoreConfig struct {
	// AutoMigrate applies pending migrations when the store is created.
	AutoMigrate bool

	// QueryTimeoutSeconds is the maximum time a query can run before timing out.
	// Default: 10 seconds
	QueryTimeoutSeconds int32
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *CertificateStoreConfig) ApplyDefaults() {
	if c.QueryTimeoutSeconds == 0 {
		c.QueryTimeoutSeconds = 10
	}
}
