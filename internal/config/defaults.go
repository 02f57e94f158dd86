package config

// DefaultConfig returns a configuration with all default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	// Server defaults
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 5000
	cfg.Server.AllowedOrigins = []string{"http://localhost:3001"}
	cfg.Server.ScoreTimeoutMS = 1800
	cfg.Server.RetrainTimeoutS = 30

	// Model defaults
	cfg.Model.AutoTrain = true
	cfg.Model.SampleCount = 10000
	cfg.Model.Contamination = 0.05

	// Database defaults
	cfg.Database.SQLitePath = "/var/lib/pumpml/artifacts.db"

	// Logging defaults
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"
	cfg.Logging.File = ""
	cfg.Logging.MaxSizeMB = 100
	cfg.Logging.MaxBackups = 3
	cfg.Logging.MaxAgeDays = 28
	cfg.Logging.Compress = true

	return cfg
}
