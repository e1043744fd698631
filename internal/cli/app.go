package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aretw0/bookclub"
	"github.com/aretw0/bookclub/internal/config"
	"github.com/aretw0/bookclub/pkg/adapters/file"
	"github.com/aretw0/bookclub/pkg/adapters/firebase"
	httpAdapter "github.com/aretw0/bookclub/pkg/adapters/http"
	"github.com/aretw0/bookclub/pkg/adapters/memory"
	"github.com/aretw0/bookclub/pkg/adapters/nats"
	"github.com/aretw0/bookclub/pkg/adapters/postgrest"
	"github.com/aretw0/bookclub/pkg/adapters/redis"
	"github.com/aretw0/bookclub/pkg/adapters/telegram"
	"github.com/aretw0/bookclub/pkg/admin"
	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/flow"
	"github.com/aretw0/bookclub/pkg/observability"
	"github.com/aretw0/bookclub/pkg/persistence/middleware"
	"github.com/aretw0/bookclub/pkg/ports"
	"github.com/aretw0/bookclub/pkg/session"
)

// App holds every wired component of one process.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Script  domain.Script
	States  ports.StateStore
	Records ports.RecordStore
	Auth    ports.Authenticator
	Flows   *flow.Service
	Admin   *admin.Service
	Metrics *observability.Metrics
	Streams *httpAdapter.StreamManager

	// Activity is set when the session store keeps an activity index.
	Activity ActivityReporter

	redis   *goredis.Client
	closers []func() error
}

// ActivityReporter tells when a session was last saved without decoding it.
type ActivityReporter interface {
	LastActivity(ctx context.Context, sessionID string) (time.Time, error)
}

// BuildOption customizes Build, mostly for tests.
type BuildOption func(*buildOptions)

type buildOptions struct {
	redis *goredis.Client
}

// WithRedisClient reuses client instead of dialing cfg.Redis.
func WithRedisClient(client *goredis.Client) BuildOption {
	return func(o *buildOptions) {
		o.redis = client
	}
}

// Build wires stores, notifiers and services from cfg.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...BuildOption) (*App, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(nil),
		Streams: httpAdapter.NewStreamManager(logger),
		redis:   o.redis,
	}

	if err := app.build(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config

	script := flow.DefaultScript()
	if cfg.Flow.Script != "" {
		var err error
		if script, err = flow.LoadScript(cfg.Flow.Script); err != nil {
			return err
		}
	}
	a.Script = script

	states, err := a.stateStore()
	if err != nil {
		return err
	}
	a.States = states

	if a.Records, err = a.recordStore(ctx); err != nil {
		return err
	}
	if a.Auth, err = a.authenticator(ctx); err != nil {
		return err
	}

	notifiers, sharer, err := a.notifiers()
	if err != nil {
		return err
	}

	sessOpts := []session.Option{session.WithLogger(a.Logger)}
	if cfg.Sessions.Lock {
		sessOpts = append(sessOpts,
			session.WithLocker(redis.NewLocker(a.redisClient(), cfg.Redis.Prefix+"lock:")),
			session.WithLockTTL(cfg.Sessions.LockTTL),
		)
	}
	sessions := session.NewManager(states, sessOpts...)

	var inserter ports.Inserter = a.Records
	if len(notifiers) > 0 {
		inserter = flow.NewNotifyingInserter(a.Records, a.Logger, notifiers...)
	}

	a.Flows, err = flow.NewService(script, sessions, inserter,
		flow.WithHooks(domain.CombineHooks(a.Metrics.Hooks(), observability.LogHooks(a.Logger))),
		flow.WithChangeListener(a.Streams.Listener()),
		flow.WithSubmitLease(cfg.Flow.SubmitLease),
		flow.WithServiceLogger(a.Logger),
	)
	if err != nil {
		return err
	}

	adminOpts := []admin.Option{
		admin.WithCountryCode(cfg.Admin.CountryCode),
		admin.WithSessionCache(cfg.Admin.CacheSize, cfg.Admin.CacheTTL),
		admin.WithLoginObserver(a.Metrics.ObserveLogin),
		admin.WithLogger(a.Logger),
	}
	if sharer != nil {
		adminOpts = append(adminOpts, admin.WithSharer(sharer))
	}
	a.Admin = admin.NewService(a.Auth, a.Records, adminOpts...)
	return nil
}

func (a *App) redisClient() *goredis.Client {
	if a.redis == nil {
		r := a.Config.Redis
		a.redis = goredis.NewClient(&goredis.Options{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
		})
		a.closers = append(a.closers, a.redis.Close)
	}
	return a.redis
}

func (a *App) stateStore() (ports.StateStore, error) {
	cfg := a.Config.Sessions

	var store ports.StateStore
	switch cfg.Store {
	case config.StoreFile:
		store = file.New(cfg.Dir)
	case config.StoreRedis:
		rs := redis.NewFromClient(a.redisClient(),
			redis.WithPrefix(a.Config.Redis.Prefix+"session:"),
			redis.WithTTL(cfg.TTL),
		)
		a.Activity = rs
		store = rs
	default:
		store = memory.NewStore()
	}

	// PII masking runs on the plain state, before encryption seals it.
	active, fallback, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})(store)
	}
	if len(cfg.PIIPatterns) > 0 {
		store = middleware.NewPIIMiddleware(cfg.PIIPatterns)(store)
	}
	return store, nil
}

func (a *App) postgrestClient() *postgrest.Client {
	p := a.Config.PostgREST
	return postgrest.New(p.URL, p.APIKey, postgrest.WithTable(p.Table))
}

func (a *App) recordStore(ctx context.Context) (ports.RecordStore, error) {
	switch a.Config.Records.Store {
	case config.StoreRedis:
		return redis.NewRecordStore(a.redisClient(), a.Config.Redis.Prefix+"record:"), nil
	case config.StorePostgREST:
		return postgrest.NewRecordStore(a.postgrestClient()), nil
	case config.StoreFirebase:
		fb := a.Config.Firebase
		store, err := firebase.Connect(ctx, fb.CredentialsFile, fb.DatabaseURL, fb.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return memory.NewRecordStore(), nil
}

func (a *App) authenticator(ctx context.Context) (ports.Authenticator, error) {
	if a.Config.Admin.Auth == config.StorePostgREST {
		return postgrest.NewAuthenticator(a.postgrestClient()), nil
	}

	auth := memory.NewAuthenticator()
	if adm := a.Config.Admin; adm.Email != "" {
		if err := auth.SignUp(ctx, adm.Email, adm.Password, adm.Name); err != nil {
			return nil, fmt.Errorf("failed to seed admin: %w", err)
		}
	}
	return auth, nil
}

func (a *App) notifiers() ([]ports.Notifier, admin.Sharer, error) {
	var (
		notifiers []ports.Notifier
		sharer    admin.Sharer
	)

	if tg := a.Config.Telegram; tg.Token != "" {
		n, err := telegram.New(tg.Token, chatID(tg.ChatID))
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, n)
		sharer = n
	}

	if nc := a.Config.NATS; nc.URL != "" {
		pub, conn, err := nats.Connect(nc.URL, nc.Subject)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() error {
			conn.Close()
			return nil
		})
		notifiers = append(notifiers, pub)
	}
	return notifiers, sharer, nil
}

// chatID is numeric for private and group chats and a string for @channels.
func chatID(s string) any {
	if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return id
	}
	return s
}

// Handler returns the HTTP surface of the app.
func (a *App) Handler() http.Handler {
	return httpAdapter.NewHandler(a.Flows, a.Admin,
		httpAdapter.WithStreams(a.Streams),
		httpAdapter.WithMetrics(a.Metrics.Handler()),
		httpAdapter.WithVersion(strings.TrimSpace(bookclub.Version)),
		httpAdapter.WithSecureCookies(a.Config.HTTP.SecureCookies),
		httpAdapter.WithLogger(a.Logger),
	)
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
