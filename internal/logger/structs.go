package logger

// Console configures the stdout/stderr logger.
type Console struct {
	Enabled          bool `mapstructure:"enabled"`
	UseConsoleWriter bool `mapstructure:"useConsoleWriter"` // human readable output instead of JSON
}

// RollingFile describes one lumberjack managed log file.
type RollingFile struct {
	Name       string `mapstructure:"name"`
	MaxSize    int    `mapstructure:"maxSize"` // megabytes
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAge     int    `mapstructure:"maxAge"` // days
}

// LogFile configures file based logging. Every level family gets its own file.
type LogFile struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`

	Access RollingFile `mapstructure:"access"`
	Error  RollingFile `mapstructure:"error"`
	Info   RollingFile `mapstructure:"info"`
	Trace  RollingFile `mapstructure:"trace"`
	Warn   RollingFile `mapstructure:"warn"`
}

// Log implements the logger config.
type Log struct {
	LogLevel string `mapstructure:"logLevel"` // trace, debug, info, warn, error.

	// EnableAccessLogToConsole writes the web console access log to stdout.
	// Does not overrule Console.Enabled.
	EnableAccessLogToConsole bool `mapstructure:"enableAccessLogToConsole"`
	ReportCaller             bool `mapstructure:"reportCaller"`
	DisableCheckAlive        bool `mapstructure:"disableCheckAlive"` // do not log /healthz calls

	AppName     string `mapstructure:"appName"`
	ServiceName string `mapstructure:"serviceName"`

	Console Console `mapstructure:"console"`
	File    LogFile `mapstructure:"file"`
}
