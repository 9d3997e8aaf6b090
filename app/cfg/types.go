package cfg

import "time"

type Cfg struct {
	// Input configuration
	ConfigPath string

	// Persisted outputs
	FeedPath     string
	StateBackend string
	StatePath    string
	DBPath       string
	RedisAddr    string
	RedisKey     string

	// Fetching
	Timeout      int // seconds
	RequestDelay int // milliseconds
	UserAgent    string

	// Daemon mode
	Schedule     string
	Port         string
	APIAccessKey string

	// Application metadata
	Timezone string
	Debug    bool
	LogFile  string
	Version  string
}

func (c *Cfg) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c *Cfg) GetRequestDelay() time.Duration {
	if c.RequestDelay <= 0 {
		return 0
	}
	return time.Duration(c.RequestDelay) * time.Millisecond
}

// IsDaemon reports whether the process should keep running on a cron schedule
// instead of building the feed once and exiting.
func (c *Cfg) IsDaemon() bool {
	return c.Schedule != ""
}
