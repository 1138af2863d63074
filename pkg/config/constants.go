package config

// EnvPrefix is applied by envconfig when resolving variables.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "SCANLY_DB_DSN"
	EnvDBHost = "SCANLY_DB_HOST"
	EnvDBUser = "SCANLY_DB_USER"
	EnvDBName = "SCANLY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
