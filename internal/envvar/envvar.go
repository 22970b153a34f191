package envvar

const (
	// Host is the environment variable for the HTTP bind address.
	Host = "HOST"

	// Port is the environment variable for the HTTP port.
	Port = "PORT"

	// Debug enables development mode (pretty logging, verbose errors).
	Debug = "DEBUG"

	// LogLevel sets the minimum slog level (debug, info, warn, error).
	LogLevel = "LOG_LEVEL"

	// ModelName is the Hugging Face repository of the speech model.
	ModelName = "MODEL_NAME"

	// ModelLoadTimeout bounds the model download + load phase, e.g. "10m".
	ModelLoadTimeout = "MODEL_LOAD_TIMEOUT"

	// HFToken is the Hugging Face credential used for gated repositories.
	HFToken = "HF_TOKEN"

	// ModelCacheDir overrides the directory model snapshots are stored in.
	ModelCacheDir = "MODEL_CACHE_DIR"

	// MaxContentLength caps the upload body size in bytes.
	MaxContentLength = "MAX_CONTENT_LENGTH"

	// TargetSampleRate is the waveform sample rate the model expects.
	TargetSampleRate = "TARGET_SAMPLE_RATE"

	// SeamlessServerBin is the path to the seamless inference server binary.
	SeamlessServerBin = "SEAMLESS_SERVER_BIN"

	// SeamlessServerPort is the localhost port the inference sidecar listens on.
	SeamlessServerPort = "SEAMLESS_SERVER_PORT"
)
