package config

import (
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// fileValues mirrors config.toml. Empty values fall through to the defaults.
type fileValues struct {
	APIURL            string  `toml:"api_url"`
	DataFolder        string  `toml:"data_folder"`
	LogLevel          string  `toml:"log_level"`
	LogFormat         string  `toml:"log_format"`
	RequestTimeout    string  `toml:"request_timeout"`
	RefreshCoalescing *bool   `toml:"refresh_coalescing"`
	RateLimit         float64 `toml:"rate_limit"`
	RateBurst         int     `toml:"rate_burst"`
}

func readFile(path string) (*fileValues, error) {
	if path == "" {
		return nil, nil
	}
	var fv fileValues
	md, err := toml.DecodeFile(path, &fv)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[config readFile] failed to parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("[config readFile] unknown keys in %s: %v", path, undecoded)
	}
	return &fv, nil
}

func (f *fileValues) str(get func(*fileValues) string, defaultValue string) string {
	if f == nil {
		return defaultValue
	}
	if v := get(f); v != "" {
		return v
	}
	return defaultValue
}
