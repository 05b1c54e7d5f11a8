package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"watchtower/core"
)

// CorrelationConfig holds the detection settings. Everything here is
// hot-reloadable through the Runtime wrapper.
type CorrelationConfig struct {
	// Enabled gates all detection; events are still stored when disabled.
	Enabled bool `mapstructure:"enabled"`
	// TimeWindowMinutes is the default trailing window for threshold
	// counting.
	TimeWindowMinutes int `mapstructure:"time_window_minutes" validate:"gt=0"`
	// CooldownMinutes suppresses repeated alerts for the same key.
	CooldownMinutes int `mapstructure:"cooldown_minutes" validate:"gt=0"`
	// FailOpen controls what a failing condition evaluation counts as.
	// False (default) treats it as a non-match, favoring availability;
	// true treats it as a match, favoring detection.
	FailOpen bool `mapstructure:"fail_open"`
	// Thresholds maps event type -> alert threshold. Types without an
	// entry are skipped by the threshold detector.
	Thresholds map[string]int `mapstructure:"thresholds"`
	// MaxEvents bounds the event store (FIFO eviction).
	MaxEvents int `mapstructure:"max_events" validate:"gt=0"`
	// MaxAlerts bounds the alert store (FIFO eviction).
	MaxAlerts int `mapstructure:"max_alerts" validate:"gt=0"`
	// GCIntervalMinutes drives the periodic event store cleanup.
	GCIntervalMinutes int `mapstructure:"gc_interval_minutes" validate:"gt=0"`
	// MaxEventAgeMinutes is the age past which cleanup drops events.
	MaxEventAgeMinutes int `mapstructure:"max_event_age_minutes" validate:"gt=0"`
}

// EmailConfig holds SMTP transport settings for the email channel.
type EmailConfig struct {
	SMTPHost    string   `mapstructure:"smtp_host"`
	SMTPPort    int      `mapstructure:"smtp_port"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	FromAddress string   `mapstructure:"from_address"`
	ToAddresses []string `mapstructure:"to_addresses"`
}

// WebhookConfig holds settings for the generic webhook channel.
type WebhookConfig struct {
	URL     string            `mapstructure:"url"`
	Method  string            `mapstructure:"method"`
	Headers map[string]string `mapstructure:"headers"`
}

// SlackConfig holds settings for the Slack channel.
type SlackConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

// NotifyConfig holds dispatcher settings.
type NotifyConfig struct {
	// Channels lists the active channels in dispatch order.
	Channels []string `mapstructure:"channels" validate:"dive,oneof=console email webhook slack"`
	// QueueSize bounds the fire-and-forget dispatch queue.
	QueueSize int `mapstructure:"queue_size" validate:"gt=0"`
	// Workers is the number of dispatch workers draining the queue.
	Workers int `mapstructure:"workers" validate:"gt=0"`
	// ChannelTimeoutSeconds bounds each individual channel send.
	ChannelTimeoutSeconds int `mapstructure:"channel_timeout_seconds" validate:"gt=0"`
	// DispatchRatePerSecond caps overall alert dispatch throughput as a
	// storm guard; critical-event alerts bypass cooldown so an unbounded
	// dispatcher could amplify a sustained attack.
	DispatchRatePerSecond float64 `mapstructure:"dispatch_rate_per_second" validate:"gt=0"`
	// DispatchBurst is the rate limiter burst size.
	DispatchBurst int `mapstructure:"dispatch_burst" validate:"gt=0"`

	Email   EmailConfig   `mapstructure:"email"`
	Webhook WebhookConfig `mapstructure:"webhook"`
	Slack   SlackConfig   `mapstructure:"slack"`

	CircuitBreaker struct {
		MaxFailures         int `mapstructure:"max_failures" validate:"gt=0"`
		TimeoutSeconds      int `mapstructure:"timeout_seconds" validate:"gt=0"`
		MaxHalfOpenRequests int `mapstructure:"max_half_open_requests" validate:"gt=0"`
	} `mapstructure:"circuit_breaker"`
}

// EngineConfig holds matcher safety settings.
type EngineConfig struct {
	// RegexTimeoutMs bounds a single regex evaluation to contain ReDoS.
	RegexTimeoutMs int `mapstructure:"regex_timeout_ms" validate:"gt=0"`
	// RegexMaxLength bounds accepted pattern length at registration.
	RegexMaxLength int `mapstructure:"regex_max_length" validate:"gt=0"`
	// MatcherCacheSize bounds the compiled-pattern LRU cache.
	MatcherCacheSize int `mapstructure:"matcher_cache_size" validate:"gt=0"`
}

// APIConfig holds the HTTP server settings.
type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"gt=0,lte=65535"`
	// RateLimitPerSecond and RateLimitBurst govern per-client request
	// throttling on the ingest and admin endpoints.
	RateLimitPerSecond int `mapstructure:"rate_limit_per_second" validate:"gt=0"`
	RateLimitBurst     int `mapstructure:"rate_limit_burst" validate:"gt=0"`
}

// Config holds all configuration for the watchtower service.
type Config struct {
	Correlation CorrelationConfig `mapstructure:"correlation"`
	Notify      NotifyConfig      `mapstructure:"notify"`
	Engine      EngineConfig      `mapstructure:"engine"`
	API         APIConfig         `mapstructure:"api"`
}

// setDefaults installs the baseline configuration.
func setDefaults() {
	viper.SetDefault("correlation.enabled", true)
	viper.SetDefault("correlation.time_window_minutes", 60)
	viper.SetDefault("correlation.cooldown_minutes", 30)
	viper.SetDefault("correlation.fail_open", false)
	viper.SetDefault("correlation.max_events", 10000)
	viper.SetDefault("correlation.max_alerts", 1000)
	viper.SetDefault("correlation.gc_interval_minutes", 10)
	viper.SetDefault("correlation.max_event_age_minutes", 24*60)
	viper.SetDefault("correlation.thresholds", DefaultThresholds())

	viper.SetDefault("notify.channels", []string{"console"})
	viper.SetDefault("notify.queue_size", 256)
	viper.SetDefault("notify.workers", 2)
	viper.SetDefault("notify.channel_timeout_seconds", 10)
	viper.SetDefault("notify.dispatch_rate_per_second", 5.0)
	viper.SetDefault("notify.dispatch_burst", 20)
	viper.SetDefault("notify.webhook.method", "POST")
	viper.SetDefault("notify.circuit_breaker.max_failures", 3)
	viper.SetDefault("notify.circuit_breaker.timeout_seconds", 60)
	viper.SetDefault("notify.circuit_breaker.max_half_open_requests", 1)

	viper.SetDefault("engine.regex_timeout_ms", 500)
	viper.SetDefault("engine.regex_max_length", 500)
	viper.SetDefault("engine.matcher_cache_size", 256)

	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.rate_limit_per_second", 50)
	viper.SetDefault("api.rate_limit_burst", 100)
}

// DefaultThresholds returns the per-event-type alert thresholds shipped
// out of the box. Types absent from the map are not threshold-monitored;
// authentication_success is deliberately absent.
func DefaultThresholds() map[string]int {
	return map[string]int{
		core.EventAuthenticationFailure.String():      5,
		core.EventAuthorizationFailure.String():       10,
		core.EventSQLInjectionAttempt.String():        2,
		core.EventXSSAttempt.String():                 2,
		core.EventCSRFViolation.String():              5,
		core.EventRateLimitExceeded.String():          10,
		core.EventSuspiciousRequest.String():          10,
		core.EventSessionHijackAttempt.String():       2,
		core.EventPrivilegeEscalationAttempt.String(): 2,
		core.EventDataExfiltrationAttempt.String():    2,
		core.EventPathTraversalAttempt.String():       3,
		core.EventCommandInjectionAttempt.String():    2,
		core.EventFileUploadViolation.String():        5,
		core.EventInvalidInput.String():               25,
		core.EventAccountLockout.String():             3,
		core.EventPasswordResetRequest.String():       10,
		core.EventSuspiciousUserAgent.String():        5,
		core.EventIPBlocked.String():                  5,
		core.EventAnomalousTraffic.String():           15,
	}
}

// LoadConfig reads configuration from file, environment, and defaults.
// Configuration errors are rejected here, at load time, so the engine
// never sees a malformed threshold or channel list.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("watchtower")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/watchtower")

	viper.SetEnvPrefix("WATCHTOWER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine; defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, core.NewConfigurationError("reading config file", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, core.NewConfigurationError("unmarshaling config", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate performs structural and semantic validation of a config.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return core.NewConfigurationError("invalid configuration", err)
	}
	if err := ValidateThresholds(cfg.Correlation.Thresholds); err != nil {
		return err
	}
	return nil
}

// ValidateThresholds checks that every threshold entry names a known event
// type and carries a positive limit.
func ValidateThresholds(thresholds map[string]int) error {
	for name, limit := range thresholds {
		if !core.EventType(name).IsValid() {
			return core.NewConfigurationError(fmt.Sprintf("threshold for unknown event type %q", name), nil)
		}
		if limit <= 0 {
			return core.NewConfigurationError(fmt.Sprintf("threshold for %q must be positive, got %d", name, limit), nil)
		}
	}
	return nil
}

// Window returns the default correlation window as a duration.
func (c CorrelationConfig) Window() time.Duration {
	return time.Duration(c.TimeWindowMinutes) * time.Minute
}

// Cooldown returns the suppression window as a duration.
func (c CorrelationConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMinutes) * time.Minute
}
