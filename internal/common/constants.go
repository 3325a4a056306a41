package common

// Feature names expected by the trained house price pipeline
const (
	FeatureAreaSqft  = "Area_sqft"
	FeatureBedrooms  = "Bedrooms"
	FeatureBathrooms = "Bathrooms"
	FeatureYearBuilt = "YearBuilt"
	FeatureLocation  = "Location"
)

// RequiredFeatures lists the features every prediction request must carry, in
// the order they are reported back to callers.
var RequiredFeatures = []string{
	FeatureAreaSqft,
	FeatureBedrooms,
	FeatureBathrooms,
	FeatureYearBuilt,
	FeatureLocation,
}

// Environment variable keys
const (
	EnvConfigFile      = "CONFIG_FILE"
	EnvHost            = "HOST"
	EnvPort            = "PORT"
	EnvModelPath       = "MODEL_PATH"
	EnvPythonPath      = "PYTHON_PATH"
	EnvPredictTimeout  = "PREDICT_TIMEOUT"
	EnvCacheSize       = "CACHE_SIZE"
	EnvCacheTTL        = "CACHE_TTL"
	EnvCORSAllowOrigin = "CORS_ALLOW_ORIGIN"
	EnvMaxBodyBytes    = "MAX_BODY_BYTES"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvDataPath        = "DATA_PATH"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvLogFile         = "LOG_FILE"
)

// Configuration defaults
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 5000
	DefaultModelPath       = "models/house_price_model.json"
	DefaultCacheSize       = 1024
	DefaultCORSAllowOrigin = "*"
	DefaultMaxBodyBytes    = 1 << 20
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
)

// Response messages
const (
	MsgServiceRunning   = "House Price Prediction API is running!"
	MsgModelNotLoaded   = "Prediction service unavailable: Model not loaded."
	MsgMethodNotAllowed = "method not allowed"
)

// Validation constants
const (
	MinPort             = 1
	MaxPort             = 65535
	MaxCacheSize        = 1_000_000
	DefaultJournalLimit = 20
	MaxJournalLimit     = 500
)
