package schema

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"

	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/telemetry"
)

// Имена исходников в базе.
const (
	SchemaSourceName      = "github_issues_schema"
	ConstraintsSourceName = "github_issues_ics"
)

// SchemaDeps — файлы модели в порядке склейки.
// Порядок важен: следующие файлы ссылаются на имена из предыдущих.
var SchemaDeps = []string{
	"data-format",
	"issue-schema",
	"label-schema",
	"user-schema",
	"repo-schema",
	"milestone-schema",
	"custom-reports",
}

// ConstraintsFile — файл integrity constraints.
const ConstraintsFile = "integrity-constraints"

//go:embed rel/*.rel
var embedded embed.FS

// DefaultFiles возвращает встроенные файлы модели.
func DefaultFiles() fs.FS {
	sub, err := fs.Sub(embedded, "rel")
	if err != nil {
		panic(err)
	}
	return sub
}

// SourceAPI — операции сервиса над исходниками (реализует *rai.Client).
type SourceAPI interface {
	ListSources(ctx context.Context, db, engine string) ([]domain.Source, error)
	InstallSources(ctx context.Context, db, engine string, sources map[string]string) error
}

type pendingSource struct {
	name  string
	value string
}

// Installer устанавливает модель в базу.
type Installer struct {
	client SourceAPI
	files  fs.FS
	logger *slog.Logger
}

// Config — конфигурация Installer.
type Config struct {
	Client SourceAPI

	// Files — файлы модели "<name>.rel" (default: встроенные).
	Files fs.FS

	Logger *slog.Logger
}

// New создаёт Installer.
func New(cfg Config) *Installer {
	files := cfg.Files
	if files == nil {
		files = DefaultFiles()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Installer{
		client: cfg.Client,
		files:  files,
		logger: logger,
	}
}

// EnsureInstalled устанавливает отсутствующие исходники модели.
//
// Возвращает имена установленных в этом вызове исходников.
// Все нужные файлы читаются до первого обращения к сервису:
// отсутствующий файл — ошибка без частичной установки.
func (i *Installer) EnsureInstalled(ctx context.Context, db, engine string) ([]string, error) {
	logger := telemetry.WithEngine(telemetry.WithDatabase(i.logger, db), engine)

	// 1. Что уже установлено
	sources, err := i.client.ListSources(ctx, db, engine)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	names := domain.SourceNames(sources)

	hasSchema := slices.Contains(names, SchemaSourceName)
	hasConstraints := slices.Contains(names, ConstraintsSourceName)
	if hasSchema && hasConstraints {
		logger.Info("schema found in sources", "sources", strings.Join(names, ", "))
		return nil, nil
	}

	// 2. Читаем файлы
	pending := make([]pendingSource, 0, 2)
	if !hasSchema {
		value, err := BuildSchema(i.files)
		if err != nil {
			return nil, err
		}
		pending = append(pending, pendingSource{SchemaSourceName, value})
	}
	if !hasConstraints {
		value, err := readFile(i.files, ConstraintsFile)
		if err != nil {
			return nil, err
		}
		pending = append(pending, pendingSource{ConstraintsSourceName, value})
	}

	// 3. Устанавливаем по одному: constraints зависят от схемы
	installed := make([]string, 0, len(pending))
	for _, src := range pending {
		logger.Info("installing source", "source", src.name, "bytes", len(src.value))
		if err := i.client.InstallSources(ctx, db, engine, map[string]string{src.name: src.value}); err != nil {
			return installed, fmt.Errorf("install %s: %w", src.name, err)
		}
		installed = append(installed, src.name)
	}

	logger.Info("sources installed", "installed", strings.Join(installed, ", "))
	return installed, nil
}

// BuildSchema склеивает файлы SchemaDeps в один исходник.
// Каждый файл обрамляется комментариями с его именем.
func BuildSchema(files fs.FS) (string, error) {
	var b strings.Builder
	for _, dep := range SchemaDeps {
		data, err := readFile(files, dep)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "/* - Start of linked file: %s - */\n", dep)
		b.WriteString(data)
		if !strings.HasSuffix(data, "\n") {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "/* ----- End of linked file: %s ----- */\n", dep)
	}
	return b.String(), nil
}

func readFile(files fs.FS, name string) (string, error) {
	data, err := fs.ReadFile(files, name+".rel")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s.rel", ErrSchemaFileMissing, name)
		}
		return "", fmt.Errorf("read %s.rel: %w", name, err)
	}
	return string(data), nil
}
