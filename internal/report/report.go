package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/rai"
	"github.com/shaiso/ghreport/internal/telemetry"
)

// Query — запрос строк отчёта.
const Query = "def output = issue_table_row"

// QueryAPI — выполнение Rel-запросов (реализует *rai.Client).
type QueryAPI interface {
	Query(ctx context.Context, db, engine, source string, readonly bool) (*rai.TransactionResult, error)
}

// Generator выполняет запрос отчёта и сохраняет HTML.
type Generator struct {
	client QueryAPI
	dir    string
	logger *slog.Logger
}

// New создаёт Generator, пишущий отчёты в dir.
func New(client QueryAPI, dir string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{client: client, dir: dir, logger: logger}
}

// Generate строит отчёт за день и возвращает путь к файлу.
// При ошибке запроса файл не создаётся.
func (g *Generator) Generate(ctx context.Context, db, engine string, day time.Time) (string, error) {
	logger := telemetry.WithEngine(telemetry.WithDatabase(g.logger, db), engine)

	// 1. Запрос
	logger.Info("querying report rows")
	result, err := g.client.Query(ctx, db, engine, Query, true)
	if err != nil {
		return "", fmt.Errorf("report query: %w", err)
	}

	rows := Rows(result)
	if len(rows) == 0 {
		logger.Warn("report query returned no rows")
	}

	// 2. Документ
	path := Path(g.dir, day)
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Render(rows)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	logger.Info("report saved", "path", path, "rows", len(rows))
	return path, nil
}

// Rows возвращает строки таблицы: последняя колонка relation output.
func Rows(result *rai.TransactionResult) []string {
	rel, ok := result.Relation("output")
	if !ok {
		rels := result.Relations()
		if len(rels) == 0 {
			return nil
		}
		rel = rels[0]
	}
	return rai.Strings(rel.LastColumn())
}

// Render оборачивает строки в HTML-документ.
func Render(rows []string) string {
	var b strings.Builder
	b.WriteString("<html>\n<body>\n<table>\n")
	b.WriteString(strings.Join(rows, ""))
	b.WriteString("\n</table>\n</body>\n</html>\n")
	return b.String()
}

// Path возвращает путь отчёта за день.
func Path(dir string, day time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("gh-report-%s.html", day.Format(domain.DayLayout)))
}
