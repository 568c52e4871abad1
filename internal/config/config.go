package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	defaultDBFile    = "crypto_premium.db"
	configPathEnv    = "CHANNEL_PUBLISHER_CONFIG"
	botTokenEnv      = "BOT_TOKEN"
	channelIDEnv     = "CHANNEL_ID"
	dbPathEnv        = "DB_PATH"
	logLevelEnv      = "LOG_LEVEL"
	railwayVolumeEnv = "RAILWAY_VOLUME_MOUNT_PATH"
	railwayDataDir   = "/data"
)

// Config holds every setting, built once at startup and passed to constructors.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Trends    TrendConfig     `yaml:"trends"`
	News      NewsConfig      `yaml:"news"`
	Market    MarketConfig    `yaml:"market"`
	Translate TranslateConfig `yaml:"translate"`
	Schedule  []ScheduleSlot  `yaml:"schedule"`
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TelegramConfig wires the bot used for both channel posts and operator commands.
type TelegramConfig struct {
	BotToken    string        `yaml:"botToken"`
	ChannelID   string        `yaml:"channelId"`
	APIURL      string        `yaml:"apiUrl"`
	AdminIDs    []int64       `yaml:"adminIds"`
	PollTimeout time.Duration `yaml:"pollTimeout"`
	SendTimeout time.Duration `yaml:"sendTimeout"`
}

// SchedulerConfig defines the loop cadence.
type SchedulerConfig struct {
	TickInterval   time.Duration  `yaml:"tickInterval"`
	FailureBackoff time.Duration  `yaml:"failureBackoff"`
	DetectEvery    time.Duration  `yaml:"detectEvery"`
	IngestEvery    time.Duration  `yaml:"ingestEvery"`
	ClaimLease     time.Duration  `yaml:"claimLease"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// TrendConfig configures the trend detector.
type TrendConfig struct {
	Threshold      int           `yaml:"threshold"`
	JitterMin      time.Duration `yaml:"jitterMin"`
	JitterMax      time.Duration `yaml:"jitterMax"`
	EntriesPerFeed int           `yaml:"entriesPerFeed"`
	Keywords       []string      `yaml:"keywords"`
	Sources        []TrendSource `yaml:"sources"`
}

// TrendSource groups feed URLs under one source name.
type TrendSource struct {
	Name string   `yaml:"name"`
	URLs []string `yaml:"urls"`
}

// NewsConfig configures discovery ingest. Source order is significant.
type NewsConfig struct {
	EntriesPerSource int          `yaml:"entriesPerSource"`
	SummaryMaxLength int          `yaml:"summaryMaxLength"`
	Sources          []FeedSource `yaml:"sources"`
}

// FeedSource is a single named feed.
type FeedSource struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// MarketConfig configures the price snapshot source.
type MarketConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Symbols  []string      `yaml:"symbols"`
	Timeout  time.Duration `yaml:"timeout"`
}

// TranslateConfig configures title translation.
type TranslateConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Endpoint       string        `yaml:"endpoint"`
	TargetLanguage string        `yaml:"targetLanguage"`
	Timeout        time.Duration `yaml:"timeout"`
}

// ScheduleSlot maps an HH:MM wall-clock minute to an editorial kind.
type ScheduleSlot struct {
	At   string `yaml:"at"`
	Kind string `yaml:"kind"`
}

// HTTPConfig holds shared outbound HTTP settings.
type HTTPConfig struct {
	FeedTimeout     time.Duration `yaml:"feedTimeout"`
	UserAgent       string        `yaml:"userAgent"`
	MinHostInterval time.Duration `yaml:"minHostInterval"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads the YAML file named by CHANNEL_PUBLISHER_CONFIG (if any) and applies env overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile is Load with an explicit path; an empty path means defaults plus env.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg := defaultConfig()
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = fileCfg
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.fillZeroes()
	cfg.bindTimezone()

	return cfg
}

// Validate reports settings that make the service unable to publish.
func (c Config) Validate() error {
	var problems []string
	if c.Telegram.BotToken == "" {
		problems = append(problems, "telegram bot token is empty")
	}
	if c.Telegram.ChannelID == "" {
		problems = append(problems, "telegram channel id is empty")
	}
	if c.Trends.JitterMax < c.Trends.JitterMin {
		problems = append(problems, "trends.jitterMax is below trends.jitterMin")
	}
	for _, slot := range c.Schedule {
		if _, err := time.Parse("15:04", slot.At); err != nil {
			problems = append(problems, fmt.Sprintf("schedule slot %q is not HH:MM", slot.At))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(botTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}

	if v := os.Getenv(channelIDEnv); v != "" {
		c.Telegram.ChannelID = v
	}

	if _, ok := os.LookupEnv(railwayVolumeEnv); ok {
		c.Database.Path = filepath.Join(railwayDataDir, defaultDBFile)
	}

	if v := os.Getenv(dbPathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

// fillZeroes restores defaults for numeric settings a YAML file zeroed out.
func (c *Config) fillZeroes() {
	def := defaultConfig()

	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = def.Telegram.APIURL
	}
	if c.Telegram.PollTimeout <= 0 {
		c.Telegram.PollTimeout = def.Telegram.PollTimeout
	}
	if c.Telegram.SendTimeout <= 0 {
		c.Telegram.SendTimeout = def.Telegram.SendTimeout
	}
	if c.Scheduler.TickInterval <= 0 {
		c.Scheduler.TickInterval = def.Scheduler.TickInterval
	}
	if c.Scheduler.FailureBackoff <= 0 {
		c.Scheduler.FailureBackoff = def.Scheduler.FailureBackoff
	}
	if c.Scheduler.DetectEvery <= 0 {
		c.Scheduler.DetectEvery = def.Scheduler.DetectEvery
	}
	if c.Scheduler.IngestEvery <= 0 {
		c.Scheduler.IngestEvery = def.Scheduler.IngestEvery
	}
	if c.Scheduler.ClaimLease <= 0 {
		c.Scheduler.ClaimLease = def.Scheduler.ClaimLease
	}
	if c.Trends.Threshold <= 0 {
		c.Trends.Threshold = def.Trends.Threshold
	}
	if c.Trends.EntriesPerFeed <= 0 {
		c.Trends.EntriesPerFeed = def.Trends.EntriesPerFeed
	}
	if len(c.Trends.Keywords) == 0 {
		c.Trends.Keywords = def.Trends.Keywords
	}
	if c.News.EntriesPerSource <= 0 {
		c.News.EntriesPerSource = def.News.EntriesPerSource
	}
	if c.News.SummaryMaxLength <= 0 {
		c.News.SummaryMaxLength = def.News.SummaryMaxLength
	}
	if c.Market.Endpoint == "" {
		c.Market.Endpoint = def.Market.Endpoint
	}
	if c.Market.Timeout <= 0 {
		c.Market.Timeout = def.Market.Timeout
	}
	if c.Translate.Endpoint == "" {
		c.Translate.Endpoint = def.Translate.Endpoint
	}
	if c.Translate.TargetLanguage == "" {
		c.Translate.TargetLanguage = def.Translate.TargetLanguage
	}
	if c.Translate.Timeout <= 0 {
		c.Translate.Timeout = def.Translate.Timeout
	}
	if c.HTTP.FeedTimeout <= 0 {
		c.HTTP.FeedTimeout = def.HTTP.FeedTimeout
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = def.HTTP.UserAgent
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database: DatabaseConfig{Path: defaultDBFile},
		Telegram: TelegramConfig{
			APIURL:      "https://api.telegram.org",
			PollTimeout: 25 * time.Second,
			SendTimeout: 10 * time.Second,
		},
		Scheduler: SchedulerConfig{
			TickInterval:   60 * time.Second,
			FailureBackoff: 30 * time.Second,
			DetectEvery:    2 * time.Hour,
			IngestEvery:    10 * time.Minute,
			ClaimLease:     5 * time.Minute,
			Timezone:       defaultTimezone,
			location:       tz,
		},
		Trends: TrendConfig{
			Threshold:      3,
			JitterMin:      5 * time.Minute,
			JitterMax:      30 * time.Minute,
			EntriesPerFeed: 20,
			Keywords: []string{
				"bitcoin", "btc", "ethereum", "eth", "jasmy",
				"defi", "nft", "web3", "airdrop", "staking",
			},
			Sources: []TrendSource{
				{
					Name: "social",
					URLs: []string{
						"https://www.reddit.com/r/cryptocurrency/hot/.rss",
						"https://www.reddit.com/r/CryptoCurrency/hot/.rss",
						"https://www.reddit.com/r/bitcoin/hot/.rss",
					},
				},
				{
					Name: "news",
					URLs: []string{
						"https://cointelegraph.com/rss",
						"https://decrypt.co/feed",
						"https://cryptonews.com/news/feed/",
					},
				},
			},
		},
		News: NewsConfig{
			EntriesPerSource: 5,
			SummaryMaxLength: 120,
			Sources: []FeedSource{
				{Name: "cointelegraph", URL: "https://cointelegraph.com/rss"},
				{Name: "decrypt", URL: "https://decrypt.co/feed"},
				{Name: "cryptonews", URL: "https://cryptonews.com/news/feed/"},
				{Name: "coin desk", URL: "https://www.coindesk.com/arc/outboundfeeds/rss/"},
			},
		},
		Market: MarketConfig{
			Endpoint: "https://api.binance.com/api/v3/ticker/24hr",
			Symbols:  []string{"BTCUSDT", "ETHUSDT", "ADAUSDT", "JASMYUSDT", "SOLUSDT"},
			Timeout:  5 * time.Second,
		},
		Translate: TranslateConfig{
			Enabled:        true,
			Endpoint:       "https://translate.googleapis.com/translate_a/single",
			TargetLanguage: "ru",
			Timeout:        10 * time.Second,
		},
		Schedule: []ScheduleSlot{
			{At: "09:00", Kind: "morning_briefing"},
			{At: "13:00", Kind: "market_stats"},
			{At: "18:00", Kind: "hot_topic"},
			{At: "21:00", Kind: "daily_summary"},
		},
		HTTP: HTTPConfig{
			FeedTimeout:     10 * time.Second,
			UserAgent:       "ChannelPublisher/1.0",
			MinHostInterval: time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
