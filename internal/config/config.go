package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/rai"
)

// Ключи настроек.
const (
	KeyProfile        = "profile"
	KeyRAIConfig      = "rai_config"
	KeyEnginePrefix   = "engine_prefix"
	KeyEngineSize     = "engine_size"
	KeyDatabase       = "database"
	KeyPollAttempts   = "poll_attempts"
	KeyPollInterval   = "poll_interval"
	KeyOwner          = "owner"
	KeyRepo           = "repo"
	KeyDataDir        = "data_dir"
	KeyResultsDir     = "results_dir"
	KeySchemaDir      = "schema_dir"
	KeyTimezone       = "timezone"
	KeyGitHubToken    = "github_token"
	KeyGitHubURL      = "github_url"
	KeyDBURL          = "db_url"
	KeyRabbitMQURL    = "rabbitmq_url"
	KeyPushgatewayURL = "pushgateway_url"
	KeyScheduleCron   = "schedule_cron"
	KeyMetricsPort    = "metrics_port"
	KeyAPIAllowReset  = "api_allow_reset"
)

// Default configuration values.
const (
	defaultProfile      = "default"
	defaultEnginePrefix = "github-engine"
	defaultEngineSize   = "S"
	defaultDatabase     = "github_issues_continuous"
	defaultPollAttempts = 5
	defaultPollInterval = 180 * time.Second
	defaultOwner        = "RelationalAI"
	defaultRepo         = "raicode"
	defaultDataDir      = "data"
	defaultResultsDir   = "results"
	defaultTimezone     = "Local"
	defaultScheduleCron = "0 6 * * *"
	defaultMetricsPort  = 9090

	envPrefix = "GHREPORT"
)

// Settings — все настройки процесса.
type Settings struct {
	Profile string
	RAI     rai.Config

	EnginePrefix string
	EngineSize   domain.EngineSize
	Database     string

	PollAttempts int
	PollInterval time.Duration

	Owner      string
	Repo       string
	DataDir    string
	ResultsDir string
	SchemaDir  string // пусто — встроенная модель
	Location   *time.Location

	GitHubToken string
	GitHubURL   string

	DBURL          string
	RabbitMQURL    string
	PushgatewayURL string

	ScheduleCron string
	MetricsPort  int

	// APIAllowReset разрешает сброс базы через HTTP API.
	APIAllowReset bool
}

// New создаёт viper с defaults и привязкой к окружению.
// Перед этим загружает .env из рабочего каталога (если есть).
func New() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyProfile, defaultProfile)
	v.SetDefault(KeyRAIConfig, "")
	v.SetDefault(KeyEnginePrefix, defaultEnginePrefix)
	v.SetDefault(KeyEngineSize, defaultEngineSize)
	v.SetDefault(KeyDatabase, defaultDatabase)
	v.SetDefault(KeyPollAttempts, defaultPollAttempts)
	v.SetDefault(KeyPollInterval, defaultPollInterval)
	v.SetDefault(KeyOwner, defaultOwner)
	v.SetDefault(KeyRepo, defaultRepo)
	v.SetDefault(KeyDataDir, defaultDataDir)
	v.SetDefault(KeyResultsDir, defaultResultsDir)
	v.SetDefault(KeySchemaDir, "")
	v.SetDefault(KeyTimezone, defaultTimezone)
	v.SetDefault(KeyGitHubURL, "")
	v.SetDefault(KeyPushgatewayURL, "")
	v.SetDefault(KeyScheduleCron, defaultScheduleCron)
	v.SetDefault(KeyMetricsPort, defaultMetricsPort)
	v.SetDefault(KeyAPIAllowReset, false)

	// Общепринятые имена без префикса
	_ = v.BindEnv(KeyGitHubToken, envPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv(KeyDBURL, envPrefix+"_DB_URL", "DB_URL")
	_ = v.BindEnv(KeyRabbitMQURL, envPrefix+"_RABBITMQ_URL", "RABBITMQ_URL")
	_ = v.BindEnv(KeyPushgatewayURL, envPrefix+"_PUSHGATEWAY_URL", "PUSHGATEWAY_URL")

	return v
}

// Load читает настройки из v. Профиль сервиса читается, только если
// withProfile == true (команде pull он не нужен).
func Load(v *viper.Viper, withProfile bool) (*Settings, error) {
	size, err := domain.ParseEngineSize(v.GetString(KeyEngineSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}

	loc, err := time.LoadLocation(v.GetString(KeyTimezone))
	if err != nil {
		return nil, fmt.Errorf("%w: timezone: %v", ErrInvalidSetting, err)
	}

	s := &Settings{
		Profile:        v.GetString(KeyProfile),
		EnginePrefix:   v.GetString(KeyEnginePrefix),
		EngineSize:     size,
		Database:       v.GetString(KeyDatabase),
		PollAttempts:   v.GetInt(KeyPollAttempts),
		PollInterval:   v.GetDuration(KeyPollInterval),
		Owner:          v.GetString(KeyOwner),
		Repo:           v.GetString(KeyRepo),
		DataDir:        v.GetString(KeyDataDir),
		ResultsDir:     v.GetString(KeyResultsDir),
		SchemaDir:      v.GetString(KeySchemaDir),
		Location:       loc,
		GitHubToken:    v.GetString(KeyGitHubToken),
		GitHubURL:      v.GetString(KeyGitHubURL),
		DBURL:          v.GetString(KeyDBURL),
		RabbitMQURL:    v.GetString(KeyRabbitMQURL),
		PushgatewayURL: v.GetString(KeyPushgatewayURL),
		ScheduleCron:   v.GetString(KeyScheduleCron),
		MetricsPort:    v.GetInt(KeyMetricsPort),
		APIAllowReset:  v.GetBool(KeyAPIAllowReset),
	}

	if s.EnginePrefix == "" || s.Database == "" {
		return nil, fmt.Errorf("%w: engine prefix and database are required", ErrInvalidSetting)
	}
	if s.PollAttempts <= 0 || s.PollInterval <= 0 {
		return nil, fmt.Errorf("%w: poll attempts and interval must be positive", ErrInvalidSetting)
	}

	if withProfile {
		path := v.GetString(KeyRAIConfig)
		if path == "" {
			path = DefaultRAIConfigPath()
		}
		cfg, err := LoadProfile(path, s.Profile)
		if err != nil {
			return nil, err
		}
		s.RAI = cfg
	}

	return s, nil
}

// DefaultRAIConfigPath возвращает ~/.rai/config.
func DefaultRAIConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".rai", "config")
	}
	return filepath.Join(home, ".rai", "config")
}

// LoadProfile читает секцию profile из INI-файла path.
//
// Любое поле можно задать или переопределить через RAI_<FIELD>
// (RAI_HOST, RAI_CLIENT_ID, ...). Без файла профиль собирается
// только из окружения, тогда обязателен RAI_HOST.
func LoadProfile(path, profile string) (rai.Config, error) {
	p := viper.New()
	p.SetConfigFile(path)
	p.SetConfigType("ini")

	fileErr := p.ReadInConfig()
	if fileErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(fileErr, &notFound) && !errors.Is(fileErr, os.ErrNotExist) {
			return rai.Config{}, fmt.Errorf("read %s: %w", path, fileErr)
		}
	}

	get := func(key string) string {
		if env := os.Getenv("RAI_" + strings.ToUpper(key)); env != "" {
			return env
		}
		return p.GetString(profile + "." + key)
	}

	cfg := rai.Config{
		Host:                 get("host"),
		Scheme:               get("scheme"),
		Region:               get("region"),
		ClientID:             get("client_id"),
		ClientSecret:         get("client_secret"),
		ClientCredentialsURL: get("client_credentials_url"),
	}
	if port := get("port"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return rai.Config{}, fmt.Errorf("%w: port %q", ErrInvalidSetting, port)
		}
		cfg.Port = n
	}

	if cfg.Host == "" {
		if fileErr != nil {
			return rai.Config{}, fmt.Errorf("%w: %s", ErrProfileNotFound, path)
		}
		return rai.Config{}, fmt.Errorf("%w: [%s] in %s", ErrProfileNotFound, profile, path)
	}
	return cfg, nil
}
