package config

// Store drivers.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreSupabase = "supabase"
	StoreNone     = "none"
)

const (
	defaultOutputDir              = "~/.local/share/hlsbot/media_output"
	defaultStateDir               = "~/.local/share/hlsbot"
	defaultAPIRoot                = "http://127.0.0.1:8081"
	defaultStorageRoot            = "/var/lib/telegram-bot-api"
	defaultConnectAttempts        = 20
	defaultConnectIntervalSeconds = 2
	defaultPollTimeoutSeconds     = 60
	defaultBind                   = ":3000"
	defaultPublicBaseURL          = "http://localhost:3000/stream"
	defaultCORSOrigin             = "*"
	defaultFFmpegBinary           = "ffmpeg"
	defaultFFprobeBinary          = "ffprobe"
	defaultPreset                 = "veryfast"
	defaultCRF                    = 23
	defaultAudioBitrate           = "128k"
	defaultStoreDriver            = StoreSQLite
	defaultSQLitePath             = "~/.local/share/hlsbot/videos.db"
	defaultStoreTable             = "videos"
	defaultRedisAddr              = "127.0.0.1:6379"
	defaultRedisTTLSeconds        = 86400
	defaultLogFormat              = "auto"
	defaultLogLevel               = "info"
	defaultMetricsPath            = "/metrics"
	defaultNtfyRequestTimeout     = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
		},
		Telegram: Telegram{
			StorageRoot:            defaultStorageRoot,
			ConnectAttempts:        defaultConnectAttempts,
			ConnectIntervalSeconds: defaultConnectIntervalSeconds,
			PollTimeoutSeconds:     defaultPollTimeoutSeconds,
		},
		Server: Server{
			Bind:       defaultBind,
			CORSOrigin: defaultCORSOrigin,
		},
		Transcode: Transcode{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Preset:        defaultPreset,
			CRF:           defaultCRF,
			AudioBitrate:  defaultAudioBitrate,
		},
		Queue: Queue{
			Concurrency: 1,
		},
		Store: Store{
			Driver:     defaultStoreDriver,
			SQLitePath: defaultSQLitePath,
			Table:      defaultStoreTable,
		},
		Redis: Redis{
			TTLSeconds: defaultRedisTTLSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Metrics: Metrics{
			Enabled: true,
			Path:    defaultMetricsPath,
		},
	}
}
