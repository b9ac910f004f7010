package config

const (
	EnvPrefix = "ABASTO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvDBDSN  = "ABASTO_DB_DSN"
	EnvDBHost = "ABASTO_DB_HOST"
	EnvDBUser = "ABASTO_DB_USER"
	EnvDBName = "ABASTO_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
