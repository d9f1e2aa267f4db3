package config

const (
	defaultDatabasePath       = "~/.local/share/backlog/backlog.db"
	defaultLogDir             = "~/.local/share/backlog/logs"
	defaultExportDir          = "~/.local/share/backlog/exports"
	defaultHLTBBaseURL        = "https://howlongtobeat.com"
	defaultHLTBUserAgent      = "backlog/dev"
	defaultHLTBRateLimit      = 0.75
	defaultHLTBMaxRetries     = 5
	defaultHLTBBackoffMinSec  = 2
	defaultHLTBBackoffMaxSec  = 60
	defaultHLTBRequestTimeout = 30
	defaultAutoAccept         = 0.95
	defaultReviewFloor        = 0.90
	defaultMinMargin          = 0.05
	defaultYearTolerance      = 1
	defaultFetchWorkers       = 4
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DatabasePath: defaultDatabasePath,
			LogDir:       defaultLogDir,
			ExportDir:    defaultExportDir,
		},
		HLTB: HLTB{
			BaseURL:         defaultHLTBBaseURL,
			UserAgent:       defaultHLTBUserAgent,
			RateLimitPerSec: defaultHLTBRateLimit,
			MaxRetries:      defaultHLTBMaxRetries,
			BackoffMinSec:   defaultHLTBBackoffMinSec,
			BackoffMaxSec:   defaultHLTBBackoffMaxSec,
			RequestTimeout:  defaultHLTBRequestTimeout,
		},
		Match: Match{
			AutoAccept:             defaultAutoAccept,
			ReviewFloor:            defaultReviewFloor,
			MinMargin:              defaultMinMargin,
			YearTolerance:          defaultYearTolerance,
			RequirePlatformOverlap: true,
		},
		Pipeline: Pipeline{
			FetchWorkers: defaultFetchWorkers,
		},
		Export: Export{
			Formats: []string{"csv"},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
