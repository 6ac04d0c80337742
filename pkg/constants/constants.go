// Package constants provides shared constants for the charge dashboard.
package constants

// DayLayout is the calendar-day key used for daily aggregation and output.
const DayLayout = "2006-01-02"

// Tariff constants
const (
	// ContractRatePerKW is the monthly base charge per contracted kW.
	ContractRatePerKW = 8320.0

	// ShortagePenaltyMultiplier scales the base rate for demand above the contract.
	ShortagePenaltyMultiplier = 1.5

	// DecimalPrecision is the precision for power and currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Analytics thresholds. These are product-tuned and exposed through the
// thresholds section of the configuration.
const (
	// OverfitRelativeErrorThreshold flags a projection as diverging when exceeded.
	OverfitRelativeErrorThreshold = 0.35

	// OverfitMinOverlapDays is the minimum overlapping day count to judge a projection.
	OverfitMinOverlapDays = 5

	// SlackProbabilityPercent is the lower evaluation band for waste/overage probability.
	SlackProbabilityPercent = 30.0

	// InefficientProbabilityPercent is the upper evaluation band for waste/overage probability.
	InefficientProbabilityPercent = 60.0

	// OverlayDampingFloor is the minimum scale applied below the contract level.
	OverlayDampingFloor = 0.2

	// OverlayAmplificationCap is the maximum scale applied above the contract level.
	OverlayAmplificationCap = 2.5

	// OverlaySteps is the number of points in the undershoot overlay curve.
	OverlaySteps = 80

	// DefaultHistogramBins is the target bin count for prediction histograms.
	DefaultHistogramBins = 26

	// MinHistogramBins is the lower bound applied to the target bin count.
	MinHistogramBins = 8

	// DefaultSmoothingWindow is the trailing window for moving-average smoothing.
	DefaultSmoothingWindow = 8

	// MinStdDev is the floor applied to standard deviations before evaluating a density.
	MinStdDev = 1e-3
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment overrides of configuration keys.
	EnvPrefix = "CHARGE"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the dashboard API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for CSV data (4 MB)
	DefaultMaxUploadSizeBytes int64 = 4 * 1024 * 1024

	// DefaultDatasetTTLSeconds is how long uploaded datasets stay addressable.
	DefaultDatasetTTLSeconds = 3600

	// DefaultMaxPointsPerStation bounds the ingest buffer kept per station.
	DefaultMaxPointsPerStation = 5000

	// DefaultBackendTimeoutSeconds is the HTTP timeout for the prediction backend.
	DefaultBackendTimeoutSeconds = 10
)
