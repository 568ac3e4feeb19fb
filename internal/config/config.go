package config

type Config interface {
	EnvConfig
	SessionConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetAPIURL() string
	GetLogLevel() string
	GetLogFormat() string
}

type mainConfig struct {
	EnvVars
	Session
	Storage
}

// Load returns a configuration where environment variables take precedence over the
// TOML file at path, which takes precedence over the defaults. A missing file is not
// an error.
func Load(path string) (Config, error) {
	fv, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return mainConfig{
		EnvVars: EnvVars{file: fv},
		Session: Session{file: fv},
		Storage: Storage{file: fv},
	}, nil
}
