package config

// EnvPrefix is the envconfig prefix shared by every configuration struct.
const EnvPrefix = "VETLAB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "VETLAB_DB_DSN"
	EnvDBHost = "VETLAB_DB_HOST"
	EnvDBUser = "VETLAB_DB_USER"
	EnvDBName = "VETLAB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
