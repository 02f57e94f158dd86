package config

import "fmt"

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// Validate validates the configuration and returns validation errors.
func (c *Config) Validate() []error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", c.Server.Port),
		})
	}

	if c.Server.ScoreTimeoutMS < 1 {
		errs = append(errs, &ValidationError{
			Field:   "server.score_timeout_ms",
			Message: fmt.Sprintf("score timeout must be positive, got %d", c.Server.ScoreTimeoutMS),
		})
	}

	if c.Server.RetrainTimeoutS < 1 {
		errs = append(errs, &ValidationError{
			Field:   "server.retrain_timeout_s",
			Message: fmt.Sprintf("retrain timeout must be positive, got %d", c.Server.RetrainTimeoutS),
		})
	}

	if c.Model.SampleCount < 1000 || c.Model.SampleCount > 50000 {
		errs = append(errs, &ValidationError{
			Field:   "model.sample_count",
			Message: fmt.Sprintf("sample count must be between 1000 and 50000, got %d", c.Model.SampleCount),
		})
	}

	if c.Model.Contamination < 0.01 || c.Model.Contamination > 0.2 {
		errs = append(errs, &ValidationError{
			Field:   "model.contamination",
			Message: fmt.Sprintf("contamination must be between 0.01 and 0.2, got %v", c.Model.Contamination),
		})
	}

	if c.Database.SQLitePath == "" {
		errs = append(errs, &ValidationError{
			Field:   "database.sqlite_path",
			Message: "sqlite path is required",
		})
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, &ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("level must be one of debug, info, warn, error; got %q", c.Logging.Level),
		})
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, &ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("format must be json or text, got %q", c.Logging.Format),
		})
	}

	return errs
}
