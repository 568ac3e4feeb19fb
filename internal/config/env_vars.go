package config

import (
	"os"
	"strings"
)

const (
	apiURLEnvVar    = "BLOGADMIN_API_URL"
	appNameVar      = "APP_NAME"
	logLevelEnvVar  = "BLOGADMIN_LOG_LEVEL"
	logFormatEnvVar = "BLOGADMIN_LOG_FORMAT"
)

type EnvVars struct {
	file *fileValues
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return getEnv(appNameVar, "Blog Admin")
}

// GetAPIURL returns the base URL of the admin REST API without a trailing slash.
func (e EnvVars) GetAPIURL() string {
	return strings.TrimSuffix(getEnv(apiURLEnvVar, e.file.str(func(f *fileValues) string { return f.APIURL }, "http://localhost:5000")), "/")
}

func (e EnvVars) GetLogLevel() string {
	return getEnv(logLevelEnvVar, e.file.str(func(f *fileValues) string { return f.LogLevel }, "warn"))
}

func (e EnvVars) GetLogFormat() string {
	return getEnv(logFormatEnvVar, e.file.str(func(f *fileValues) string { return f.LogFormat }, "console"))
}

func getEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
