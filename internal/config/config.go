package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfighcl"
	"github.com/kovalyov-valentin/news-easy-bot/internal/chunk"
	"github.com/kovalyov-valentin/news-easy-bot/internal/digest"
	"github.com/kovalyov-valentin/news-easy-bot/internal/source"

	// Часовые пояса нужны и в контейнере без системной tzdata
	_ "time/tzdata"
)

// Совпадает с default тега MaxChars
const defaultMaxChars = 3800

// Хранить в файле мы будем в формате hcl.
// Также указываем ключ для переменных окружения
type Config struct {
	TelegramBotToken string `hcl:"telegram_bot_token" env:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Пустой URL включает long polling
	WebhookURL  string  `hcl:"webhook_url" env:"WEBHOOK_URL"`
	WebhookPath string  `hcl:"webhook_path" env:"WEBHOOK_PATH" default:"/webhook"`
	ListenAddr  string  `hcl:"listen_addr" env:"LISTEN_ADDR" default:":8080"`
	AdminIDs    []int64 `hcl:"admin_ids" env:"ADMIN_IDS"`

	Timezone       string        `hcl:"timezone" env:"TIMEZONE" default:"Europe/Kyiv"`
	SourceTimeout  time.Duration `hcl:"source_timeout" env:"SOURCE_TIMEOUT" default:"25s"`
	HTTPTimeout    time.Duration `hcl:"http_timeout" env:"HTTP_TIMEOUT" default:"20s"`
	CommandTimeout time.Duration `hcl:"command_timeout" env:"COMMAND_TIMEOUT" default:"3m"`

	MaxChars     int           `hcl:"max_chars" env:"MAX_CHARS" default:"3800"`
	MessagePause time.Duration `hcl:"message_pause" env:"MESSAGE_PAUSE" default:"60ms"`
	SendAttempts int           `hcl:"send_attempts" env:"SEND_ATTEMPTS" default:"3"`

	// 0 значит без ограничений
	PerSourceCap  int    `hcl:"per_source_cap" env:"PER_SOURCE_CAP" default:"0"`
	PerSectionCap int    `hcl:"per_section_cap" env:"PER_SECTION_CAP" default:"0"`
	SectionOrder  string `hcl:"section_order" env:"SECTION_ORDER" default:"alphabetical"`
	Undated       string `hcl:"undated" env:"UNDATED" default:"drop"`

	MaxArticles     int    `hcl:"max_articles" env:"MAX_ARTICLES" default:"40"`
	ArticleParallel int    `hcl:"article_parallel" env:"ARTICLE_PARALLEL" default:"6"`
	FeedsFile       string `hcl:"feeds_file" env:"FEEDS_FILE" default:"./feeds.yaml"`
	UserAgent       string `hcl:"user_agent" env:"USER_AGENT"`

	LogLevel string `hcl:"log_level" env:"LOG_LEVEL" default:"info"`
}

// cfg - инстанс конфига, в который мы будем читать данные
// И once, которая нам гарантирует что чтение выполнится не более одного раза
var (
	cfg     Config
	loadErr error
	once    sync.Once
)

// Метод get, который возвращает конфиг и ошибку загрузки или валидации
func Get() (Config, error) {
	once.Do(func() {
		cfg, loadErr = Load("./config.hcl", "./config.local.hcl")
	})

	return cfg, loadErr
}

// Load reads files in order, later files and NEB_ environment variables
// overriding earlier values. Missing files are skipped.
func Load(files ...string) (Config, error) {
	var c Config

	loader := aconfig.LoaderFor(&c, aconfig.Config{
		// Префикс для переменных окружения, чтобы они не пересеклись с переменными других программ
		EnvPrefix: "NEB",
		// Флаги разбирают сами бинарники
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".hcl": aconfighcl.New(),
		},
	})

	if err := loader.Load(); err != nil {
		return c, err
	}

	return c, c.Validate()
}

func (c Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}

	switch digest.SectionOrder(c.SectionOrder) {
	case digest.SectionsAlphabetical, digest.SectionsByCount:
	default:
		return fmt.Errorf("unknown section order %q", c.SectionOrder)
	}

	switch digest.UndatedPolicy(c.Undated) {
	case digest.UndatedDrop, digest.UndatedKeep:
	default:
		return fmt.Errorf("unknown undated policy %q", c.Undated)
	}

	if c.MaxChars <= 0 || c.MaxChars > chunk.TelegramLimit {
		return fmt.Errorf("max_chars must be in (0, %d], got %d", chunk.TelegramLimit, c.MaxChars)
	}

	return nil
}

// Location returns the configured zone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DigestOptions converts the config for digest.Service. MaxChars outside
// (0, 4096] is clamped so a bad value cannot explode into one message per
// character.
func (c Config) DigestOptions() digest.Options {
	maxChars := c.MaxChars
	switch {
	case maxChars <= 0:
		maxChars = defaultMaxChars
	case maxChars > chunk.TelegramLimit:
		maxChars = chunk.TelegramLimit
	}

	return digest.Options{
		Location:      c.Location(),
		MaxChars:      maxChars,
		SectionOrder:  digest.SectionOrder(c.SectionOrder),
		PerSourceCap:  c.PerSourceCap,
		PerSectionCap: c.PerSectionCap,
		Undated:       digest.UndatedPolicy(c.Undated),
	}
}

func (c Config) SourceOptions(feeds []source.Feed) source.Options {
	return source.Options{
		UserAgent:       c.UserAgent,
		HTTPTimeout:     c.HTTPTimeout,
		Location:        c.Location(),
		MaxArticles:     c.MaxArticles,
		ArticleParallel: c.ArticleParallel,
		Feeds:           feeds,
	}
}
