package config

type NewRelicConfig struct {
	Enabled    bool   `yaml:"enabled"`
	AppName    string `yaml:"app_name"`
	LicenseKey string `yaml:"license_key"`
}

func loadNewRelicConfig() *NewRelicConfig {
	return &NewRelicConfig{
		Enabled:    getEnvAsBool("NEW_RELIC_ENABLED", false),
		AppName:    getEnv("NEW_RELIC_APP_NAME", "greenride"),
		LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
	}
}
