package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/rai"
	"github.com/shaiso/ghreport/internal/telemetry"
)

var (
	// repoName — допустимые символы имени репозитория GitHub.
	repoName = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	relIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// QueryAPI — выполнение Rel-запросов (реализует *rai.Client).
type QueryAPI interface {
	Query(ctx context.Context, db, engine, source string, readonly bool) (*rai.TransactionResult, error)
}

// Loader загружает batches одного репозитория.
type Loader struct {
	client  QueryAPI
	dataDir string
	repo    string
	batches []domain.Batch
	logger  *slog.Logger
}

// Config — конфигурация Loader.
type Config struct {
	Client QueryAPI

	DataDir string // каталог с файлами "<repo>-<kind>.json"
	Repo    string // имя репозитория, ключ в relations

	// Batches — что загружать (default: domain.LoadOrder).
	Batches []domain.Batch

	Logger *slog.Logger
}

// ProbeResult — результат проверочного запроса.
type ProbeResult struct {
	Expected string
	Got      []string
}

// Matches возвращает true, если запрос вернул ровно ожидаемое имя.
func (p *ProbeResult) Matches() bool {
	return len(p.Got) == 1 && p.Got[0] == p.Expected
}

// New создаёт Loader.
func New(cfg Config) (*Loader, error) {
	if !repoName.MatchString(cfg.Repo) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRepoName, cfg.Repo)
	}

	batches := cfg.Batches
	if len(batches) == 0 {
		batches = domain.LoadOrder
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{
		client:  cfg.Client,
		dataDir: cfg.DataDir,
		repo:    cfg.Repo,
		batches: batches,
		logger:  logger,
	}, nil
}

// Load заменяет данные репозитория во всех relations одним запросом.
func (l *Loader) Load(ctx context.Context, db, engine string) error {
	logger := telemetry.WithEngine(telemetry.WithDatabase(l.logger, db), engine)

	// 1. Собираем запрос из файлов
	query, err := BuildUpdate(l.dataDir, l.repo, l.batches)
	if err != nil {
		return err
	}

	// 2. Выполняем одной транзакцией
	logger.Info("executing update", "repo", l.repo, "batches", len(l.batches), "bytes", len(query))
	if _, err := l.client.Query(ctx, db, engine, query, false); err != nil {
		return fmt.Errorf("load data: %w", err)
	}

	logger.Info("update complete", "repo", l.repo)
	return nil
}

// Probe выполняет проверочный запрос: имя репозитория из json_repos.
//
// Ошибка возвращается только если запрос не выполнился;
// совпадение значения проверяет вызывающий через ProbeResult.Matches.
func (l *Loader) Probe(ctx context.Context, db, engine string) (*ProbeResult, error) {
	query := ProbeQuery(l.repo)

	result, err := l.client.Query(ctx, db, engine, query, true)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}

	probe := &ProbeResult{Expected: l.repo}
	if rel, ok := result.Relation("output"); ok {
		probe.Got = rai.Strings(rel.LastColumn())
	}
	return probe, nil
}

// ProbeQuery возвращает проверочный запрос для репозитория.
func ProbeQuery(repo string) string {
	return fmt.Sprintf("def output = json_repos[%s][:[], 1, :name]", RepoKey(repo))
}

// RepoKey возвращает ключ репозитория в relations: символ :<repo>,
// если имя является идентификатором Rel, иначе строку "<repo>"
// (go-github, docs.github.com).
func RepoKey(repo string) string {
	if relIdent.MatchString(repo) {
		return ":" + repo
	}
	return strconv.Quote(repo)
}

// BuildUpdate собирает Rel-запрос замены данных для всех batches.
//
// Для каждого batch три определения:
//
//	def data_config[<key>][:<rel>][:data] = "<json>"
//	def delete[:<rel>][<key>](xs...) = <rel>[<key>](xs...)
//	def insert[:<rel>][<key>](xs...) = load_json[ data_config[<key>][:<rel>] ](xs...)
//
// <key> — RepoKey(repo).
func BuildUpdate(dataDir, repo string, batches []domain.Batch) (string, error) {
	if !repoName.MatchString(repo) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRepoName, repo)
	}
	key := RepoKey(repo)

	var b strings.Builder
	for _, batch := range batches {
		if !batch.Loadable() {
			continue
		}

		data, err := readBatch(batch.Path(dataDir, repo))
		if err != nil {
			return "", err
		}

		literal, err := relString(data)
		if err != nil {
			return "", err
		}

		rel := batch.Relation
		fmt.Fprintf(&b, "def data_config[%s][:%s][:data] = %s\n", key, rel, literal)
		fmt.Fprintf(&b, "def delete[:%s][%s](xs...) = %s[%s](xs...)\n", rel, key, rel, key)
		fmt.Fprintf(&b, "def insert[:%s][%s](xs...) = load_json[ data_config[%s][:%s] ](xs...)\n", rel, key, key, rel)
	}
	return b.String(), nil
}

// readBatch читает файл batch. Пустой файл считается пустым массивом.
func readBatch(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBatchFileMissing, path)
		}
		return nil, fmt.Errorf("read batch %s: %w", path, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []byte("[]"), nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBatch, path, err)
	}
	return data, nil
}

// relString кодирует содержимое файла как строковый литерал Rel.
// Escape-последовательности JSON-строки совпадают с Rel, "%" экранируется
// отдельно, так как в Rel начинает интерполяцию.
func relString(data []byte) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(string(data)); err != nil {
		return "", fmt.Errorf("encode batch: %w", err)
	}

	literal := strings.TrimSuffix(buf.String(), "\n")
	return strings.ReplaceAll(literal, "%", `\%`), nil
}
