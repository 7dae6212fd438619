package model

import "time"

// Config is the full engine configuration. Thresholds, windows, and decay
// rates are deliberately configuration rather than constants; the defaults
// below are the documented, tested values.
type Config struct {
	Verify    VerifyConfig    `yaml:"verify" mapstructure:"verify"`
	Synthesis SynthesisConfig `yaml:"synthesis" mapstructure:"synthesis"`
	Trust     TrustConfig     `yaml:"trust" mapstructure:"trust"`
	Monitor   MonitorConfig   `yaml:"monitor" mapstructure:"monitor"`
	Alert     AlertConfig     `yaml:"alert" mapstructure:"alert"`
	Sources   SourcesConfig   `yaml:"sources" mapstructure:"sources"`
	Model     ModelConfig     `yaml:"model" mapstructure:"model"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Debug     bool            `yaml:"debug" mapstructure:"debug"`
}

// VerifyConfig bounds the orchestrator's fan-out.
type VerifyConfig struct {
	PerVerifierTimeout time.Duration `yaml:"per_verifier_timeout" mapstructure:"per_verifier_timeout"`
	OverallTimeout     time.Duration `yaml:"overall_timeout" mapstructure:"overall_timeout"`
	RetryBaseDelay     time.Duration `yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
}

// SynthesisConfig holds the label thresholds and feedback-bias cap.
type SynthesisConfig struct {
	TrueScoreMin  float64 `yaml:"true_score_min" mapstructure:"true_score_min"`
	FalseScoreMax float64 `yaml:"false_score_max" mapstructure:"false_score_max"`
	MinConfidence float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	BiasCap       float64 `yaml:"bias_cap" mapstructure:"bias_cap"`
}

// TrustConfig governs the feedback trust gate.
type TrustConfig struct {
	Window            time.Duration `yaml:"window" mapstructure:"window"`
	MaxPerWindow      int           `yaml:"max_per_window" mapstructure:"max_per_window"`
	InitialScore      float64       `yaml:"initial_score" mapstructure:"initial_score"`
	AcceptDelta       float64       `yaml:"accept_delta" mapstructure:"accept_delta"`
	ManipulationDelta float64       `yaml:"manipulation_delta" mapstructure:"manipulation_delta"`
	ReputationFloor   float64       `yaml:"reputation_floor" mapstructure:"reputation_floor"`
	DuplicateWindow   time.Duration `yaml:"duplicate_window" mapstructure:"duplicate_window"`
	DuplicateUserMin  int           `yaml:"duplicate_user_min" mapstructure:"duplicate_user_min"`
	DecayRestingScore float64       `yaml:"decay_resting_score" mapstructure:"decay_resting_score"`
	DecayStep         float64       `yaml:"decay_step" mapstructure:"decay_step"`
}

// MonitorConfig governs unsolved-query sweeps.
type MonitorConfig struct {
	SweepSchedule     string        `yaml:"sweep_schedule" mapstructure:"sweep_schedule"`
	BaseBackoff       time.Duration `yaml:"base_backoff" mapstructure:"base_backoff"`
	MaxBackoff        time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	MaxChecks         int           `yaml:"max_checks" mapstructure:"max_checks"`
	ResolveConfidence float64       `yaml:"resolve_confidence" mapstructure:"resolve_confidence"`
	SweepWorkers      int           `yaml:"sweep_workers" mapstructure:"sweep_workers"`
}

// AlertConfig governs resolution-alert delivery.
type AlertConfig struct {
	CoalesceWindow time.Duration `yaml:"coalesce_window" mapstructure:"coalesce_window"`
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
	WebhookURL     string        `yaml:"webhook_url" mapstructure:"webhook_url"`
	Email          EmailConfig   `yaml:"email" mapstructure:"email"`
}

// EmailConfig is the SMTP channel configuration.
type EmailConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	To       string `yaml:"to" mapstructure:"to"`
}

// SourcesConfig governs the external-source probe client.
type SourcesConfig struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	PrimaryDomains    []string      `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains  []string      `yaml:"secondary_domains" mapstructure:"secondary_domains"`
}

// ModelConfig configures the opaque text-scoring function backing the
// consensus and media verifiers. Empty provider disables model scoring.
type ModelConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"`
	Model     string        `yaml:"model" mapstructure:"model"`
	APIKey    string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// StorageConfig locates the durable state.
type StorageConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Verify: VerifyConfig{
			PerVerifierTimeout: 15 * time.Second,
			OverallTimeout:     45 * time.Second,
			RetryBaseDelay:     500 * time.Millisecond,
		},
		Synthesis: SynthesisConfig{
			TrueScoreMin:  0.75,
			FalseScoreMax: 0.25,
			MinConfidence: 0.6,
			BiasCap:       0.1,
		},
		Trust: TrustConfig{
			Window:            time.Hour,
			MaxPerWindow:      10,
			InitialScore:      50,
			AcceptDelta:       2,
			ManipulationDelta: 20,
			ReputationFloor:   10,
			DuplicateWindow:   10 * time.Minute,
			DuplicateUserMin:  3,
			DecayRestingScore: 50,
			DecayStep:         1,
		},
		Monitor: MonitorConfig{
			SweepSchedule:     "@every 5m",
			BaseBackoff:       10 * time.Minute,
			MaxBackoff:        6 * time.Hour,
			MaxChecks:         5,
			ResolveConfidence: 0.6,
			SweepWorkers:      4,
		},
		Alert: AlertConfig{
			CoalesceWindow: 30 * time.Second,
			MaxAttempts:    3,
			RetryBaseDelay: time.Second,
			Email:          EmailConfig{Port: 587},
		},
		Sources: SourcesConfig{
			Timeout:           10 * time.Second,
			UserAgent:         "Veristat/0.1 (+https://github.com/veristat/veristat)",
			RequestsPerSecond: 2,
			Burst:             5,
			PrimaryDomains: []string{
				"who.int", "cdc.gov", "fda.gov", "reuters.com", "apnews.com",
			},
			SecondaryDomains: []string{
				"snopes.com", "politifact.com", "factcheck.org", "bbc.com",
			},
		},
		Model: ModelConfig{
			Model:     "gpt-4o-mini",
			Timeout:   30 * time.Second,
			MaxTokens: 256,
		},
		Storage: StorageConfig{Path: "veristat.db"},
	}
}
