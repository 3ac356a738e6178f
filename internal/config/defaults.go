package config

const (
	defaultStateDir         = "~/.local/share/rewind"
	defaultLogDir           = "~/.local/share/rewind/logs"
	defaultTMDBBaseURL      = "https://api.themoviedb.org/3"
	defaultTMDBLanguage     = "en-US"
	defaultSerializdBaseURL = "https://www.serializd.com/api"
	defaultRequestTimeout   = 30
	defaultDedupWindowDays  = 3
	defaultOrder            = "oldest"
	defaultWriteDelayMS     = 500
	defaultOverridesPath    = "~/.config/rewind/shows.tmdbmap"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Serializd: Serializd{
			BaseURL:        defaultSerializdBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Import: Import{
			DedupWindowDays: defaultDedupWindowDays,
			Order:           defaultOrder,
			WriteDelayMS:    defaultWriteDelayMS,
			OverridesPath:   defaultOverridesPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
