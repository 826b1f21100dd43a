package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	gh "github.com/google/go-github/v61/github"
	"golang.org/x/time/rate"

	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/telemetry"
)

// Default configuration values.
const (
	defaultPerPage   = 100
	defaultUserRate  = 5
	defaultUserBurst = 5
)

// NewClient создаёт клиент GitHub с токеном.
// baseURL задаётся для GitHub Enterprise или тестов, пустой — api.github.com.
func NewClient(token, baseURL string) (*gh.Client, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	client := gh.NewClient(nil).WithAuthToken(token)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		client.BaseURL = u
	}
	return client, nil
}

// Fetcher выгружает batches одного репозитория.
type Fetcher struct {
	client  *gh.Client
	dataDir string
	perPage int
	users   *rate.Limiter
	logger  *slog.Logger
}

// Config — конфигурация Fetcher.
type Config struct {
	Client  *gh.Client
	DataDir string

	PerPage  int        // размер страницы (default: 100)
	UserRate rate.Limit // запросов Users.Get в секунду (default: 5)

	Logger *slog.Logger
}

// Summary — количество записей по batches.
type Summary map[domain.BatchKind]int

// New создаёт Fetcher.
func New(cfg Config) *Fetcher {
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	userRate := cfg.UserRate
	if userRate <= 0 {
		userRate = defaultUserRate
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		client:  cfg.Client,
		dataDir: cfg.DataDir,
		perPage: perPage,
		users:   rate.NewLimiter(userRate, defaultUserBurst),
		logger:  logger,
	}
}

// FetchAll выгружает все batches репозитория owner/repo в каталог данных.
//
// Возвращается после записи всех файлов. При ошибке уже записанные
// файлы остаются, недописанных файлов не бывает.
func (f *Fetcher) FetchAll(ctx context.Context, owner, repo string) (Summary, error) {
	if owner == "" || repo == "" {
		return nil, ErrMissingRepository
	}
	logger := telemetry.WithRepository(f.logger, owner, repo)

	if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	summary := make(Summary, len(domain.FetchedBatches))
	var contributors []*gh.Contributor

	for _, batch := range domain.FetchedBatches {
		var (
			records any
			count   int
			err     error
		)

		switch batch.Kind {
		case domain.BatchMilestones:
			var ms []*gh.Milestone
			ms, err = f.milestones(ctx, owner, repo)
			records, count = ms, len(ms)
		case domain.BatchLabels:
			var ls []*gh.Label
			ls, err = f.labels(ctx, owner, repo)
			records, count = ls, len(ls)
		case domain.BatchIssues:
			var is []*gh.Issue
			is, err = f.issues(ctx, owner, repo)
			records, count = is, len(is)
		case domain.BatchUsers:
			contributors, err = f.contributors(ctx, owner, repo)
			records, count = contributors, len(contributors)
		case domain.BatchUserDetails:
			var us []*gh.User
			us, err = f.userDetails(ctx, contributors)
			records, count = us, len(us)
		case domain.BatchRepo:
			var r *gh.Repository
			r, _, err = f.client.Repositories.Get(ctx, owner, repo)
			if err == nil {
				records, count = []*gh.Repository{r}, 1
			}
		default:
			return summary, fmt.Errorf("unknown batch kind %q", batch.Kind)
		}
		if err != nil {
			return summary, fmt.Errorf("fetch %s: %w", batch.Kind, err)
		}

		path := batch.Path(f.dataDir, repo)
		if err := writeJSON(path, records); err != nil {
			return summary, err
		}

		summary[batch.Kind] = count
		telemetry.ObserveFetched(string(batch.Kind), count)
		logger.Info("batch written", "batch", batch.Kind, "records", count, "path", path)
	}

	return summary, nil
}

func (f *Fetcher) issues(ctx context.Context, owner, repo string) ([]*gh.Issue, error) {
	return collect(ctx, f.perPage, func(opts gh.ListOptions) ([]*gh.Issue, *gh.Response, error) {
		return f.client.Issues.ListByRepo(ctx, owner, repo, &gh.IssueListByRepoOptions{
			State:       "all",
			ListOptions: opts,
		})
	})
}

func (f *Fetcher) milestones(ctx context.Context, owner, repo string) ([]*gh.Milestone, error) {
	return collect(ctx, f.perPage, func(opts gh.ListOptions) ([]*gh.Milestone, *gh.Response, error) {
		return f.client.Issues.ListMilestones(ctx, owner, repo, &gh.MilestoneListOptions{
			State:       "all",
			ListOptions: opts,
		})
	})
}

func (f *Fetcher) labels(ctx context.Context, owner, repo string) ([]*gh.Label, error) {
	return collect(ctx, f.perPage, func(opts gh.ListOptions) ([]*gh.Label, *gh.Response, error) {
		return f.client.Issues.ListLabels(ctx, owner, repo, &opts)
	})
}

func (f *Fetcher) contributors(ctx context.Context, owner, repo string) ([]*gh.Contributor, error) {
	return collect(ctx, f.perPage, func(opts gh.ListOptions) ([]*gh.Contributor, *gh.Response, error) {
		return f.client.Repositories.ListContributors(ctx, owner, repo, &gh.ListContributorsOptions{
			ListOptions: opts,
		})
	})
}

// userDetails загружает профиль каждого участника, не чаще users limiter.
func (f *Fetcher) userDetails(ctx context.Context, contributors []*gh.Contributor) ([]*gh.User, error) {
	users := make([]*gh.User, 0, len(contributors))
	for _, c := range contributors {
		login := c.GetLogin()
		if login == "" {
			continue
		}
		if err := f.users.Wait(ctx); err != nil {
			return nil, err
		}

		user, _, err := f.client.Users.Get(ctx, login)
		if err != nil {
			return nil, fmt.Errorf("get user %s: %w", login, err)
		}
		users = append(users, user)
	}
	return users, nil
}

// collect проходит все страницы списка.
func collect[T any](ctx context.Context, perPage int, list func(gh.ListOptions) ([]T, *gh.Response, error)) ([]T, error) {
	all := make([]T, 0)
	opts := gh.ListOptions{PerPage: perPage}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, resp, err := list(opts)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

// writeJSON пишет records в path через временный файл в том же каталоге.
func writeJSON(path string, records any) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(records); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
