// Package config defines the application configuration and the functions
// for loading it.
package config

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/analytics"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/constants"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for the charge dashboard.
type Configuration struct {
	Logging    LoggingConfig        `mapstructure:"logging" yaml:"logging,omitempty"`
	Output     OutputConfig         `mapstructure:"output" yaml:"output,omitempty"`
	Thresholds analytics.Thresholds `mapstructure:"thresholds" yaml:"thresholds,omitempty"` // zero or negative values fall back to the defaults
	Backend    BackendConfig        `mapstructure:"backend" yaml:"backend,omitempty"`
	Ingest     IngestConfig         `mapstructure:"ingest" yaml:"ingest,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json
}

// BackendConfig points at the external prediction API.
type BackendConfig struct {
	BaseURL        string `mapstructure:"baseUrl" yaml:"baseUrl,omitempty"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds" yaml:"timeoutSeconds,omitempty"`
}

// IngestConfig configures the live session feeds. A feed is disabled when
// its topic is empty.
type IngestConfig struct {
	MaxPointsPerStation int         `mapstructure:"maxPointsPerStation" yaml:"maxPointsPerStation,omitempty"`
	Kafka               KafkaConfig `mapstructure:"kafka" yaml:"kafka,omitempty"`
	MQTT                MQTTConfig  `mapstructure:"mqtt" yaml:"mqtt,omitempty"`
}

// KafkaConfig configures the Kafka session consumer.
type KafkaConfig struct {
	Brokers            []string `mapstructure:"brokers" yaml:"brokers,omitempty"`
	Topic              string   `mapstructure:"topic" yaml:"topic,omitempty"`
	GroupID            string   `mapstructure:"groupId" yaml:"groupId,omitempty"`
	PollTimeoutSeconds int      `mapstructure:"pollTimeoutSeconds" yaml:"pollTimeoutSeconds,omitempty"`
}

// MQTTConfig configures the MQTT telemetry subscriber.
type MQTTConfig struct {
	Broker   string `mapstructure:"broker" yaml:"broker,omitempty"`
	Topic    string `mapstructure:"topic" yaml:"topic,omitempty"`
	ClientID string `mapstructure:"clientId" yaml:"clientId,omitempty"`
	QoS      int    `mapstructure:"qos" yaml:"qos,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

// Default returns the configuration used when no file is supplied.
func Default() *Configuration {
	conf, err := decode(newViper())
	if err != nil {
		// defaults are static and always decode
		panic(err)
	}
	return conf
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := analytics.DefaultThresholds()
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("thresholds.ratePerKw", d.RatePerKW)
	v.SetDefault("thresholds.shortagePenaltyMultiplier", d.ShortagePenaltyMultiplier)
	v.SetDefault("thresholds.overfitRelativeError", d.OverfitRelativeError)
	v.SetDefault("thresholds.overfitMinOverlapDays", d.OverfitMinOverlapDays)
	v.SetDefault("thresholds.slackPercent", d.SlackPercent)
	v.SetDefault("thresholds.inefficientPercent", d.InefficientPercent)
	v.SetDefault("thresholds.overlayDampingFloor", d.OverlayDampingFloor)
	v.SetDefault("thresholds.overlayAmplificationCap", d.OverlayAmplificationCap)
	v.SetDefault("thresholds.histogramBins", d.HistogramBins)
	v.SetDefault("thresholds.smoothingWindow", d.SmoothingWindow)
	v.SetDefault("backend.baseUrl", "")
	v.SetDefault("backend.timeoutSeconds", constants.DefaultBackendTimeoutSeconds)
	v.SetDefault("ingest.maxPointsPerStation", constants.DefaultMaxPointsPerStation)
	v.SetDefault("ingest.kafka.brokers", []string{})
	v.SetDefault("ingest.kafka.topic", "")
	v.SetDefault("ingest.kafka.groupId", "charge-dashboard")
	v.SetDefault("ingest.kafka.pollTimeoutSeconds", 5)
	v.SetDefault("ingest.mqtt.broker", "")
	v.SetDefault("ingest.mqtt.topic", "")
	v.SetDefault("ingest.mqtt.clientId", "charge-dashboard")
	v.SetDefault("ingest.mqtt.qos", 0)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.Thresholds = configuration.Thresholds.WithDefaults()
	return &configuration, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		warnings = append(warnings, err.Error())
	}
	warnings = append(warnings, validation.ValidateThresholds(validation.ThresholdBands{
		SlackPercent:            c.Thresholds.SlackPercent,
		InefficientPercent:      c.Thresholds.InefficientPercent,
		OverfitRelativeError:    c.Thresholds.OverfitRelativeError,
		OverlayDampingFloor:     c.Thresholds.OverlayDampingFloor,
		OverlayAmplificationCap: c.Thresholds.OverlayAmplificationCap,
	})...)

	if c.Backend.BaseURL != "" {
		if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			warnings = append(warnings, fmt.Sprintf("backend baseUrl %q is not an absolute URL; backend lookups are disabled", c.Backend.BaseURL))
		}
	}
	if c.Ingest.Kafka.Topic != "" && len(c.Ingest.Kafka.Brokers) == 0 {
		warnings = append(warnings, "kafka topic configured without brokers; kafka ingest is disabled")
	}
	if c.Ingest.MQTT.Topic != "" && c.Ingest.MQTT.Broker == "" {
		warnings = append(warnings, "mqtt topic configured without a broker; mqtt ingest is disabled")
	}
	if c.Ingest.MQTT.QoS < 0 || c.Ingest.MQTT.QoS > 2 {
		warnings = append(warnings, fmt.Sprintf("mqtt qos %d out of range 0-2", c.Ingest.MQTT.QoS))
	}
	return warnings
}

// BackendEnabled reports whether an absolute backend URL is configured.
func (c *Configuration) BackendEnabled() bool {
	u, err := url.Parse(c.Backend.BaseURL)
	return c.Backend.BaseURL != "" && err == nil && u.Scheme != "" && u.Host != ""
}

// KafkaEnabled reports whether the Kafka session consumer should run.
func (c *Configuration) KafkaEnabled() bool {
	return c.Ingest.Kafka.Topic != "" && len(c.Ingest.Kafka.Brokers) > 0
}

// MQTTEnabled reports whether the MQTT telemetry subscriber should run.
func (c *Configuration) MQTTEnabled() bool {
	return c.Ingest.MQTT.Topic != "" && c.Ingest.MQTT.Broker != ""
}
