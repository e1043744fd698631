// Package admin implements the operator dashboard: sign-in and the
// candidate list with its delete and export actions.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/aretw0/bookclub/internal/logging"
	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/export"
	"github.com/aretw0/bookclub/pkg/ports"
)

// ErrSharingDisabled is returned by Share when no messaging channel is configured.
var ErrSharingDisabled = errors.New("sharing is not configured")

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 5 * time.Minute
)

// Sharer posts a stored record to a messaging channel.
type Sharer interface {
	Share(ctx context.Context, record domain.StoredRecord) error
}

// Service runs dashboard operations on behalf of a signed-in operator.
// Every operation but Login takes the session token.
type Service struct {
	auth        ports.Authenticator
	records     ports.RecordStore
	sharer      Sharer
	cache       *expirable.LRU[string, domain.AdminSession]
	cacheSize   int
	cacheTTL    time.Duration
	countryCode string
	onLogin     func(ok bool)
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSharer enables Share.
func WithSharer(s Sharer) Option {
	return func(svc *Service) {
		svc.sharer = s
	}
}

// WithCountryCode sets the prefix of WhatsApp links for national numbers.
func WithCountryCode(cc string) Option {
	return func(svc *Service) {
		svc.countryCode = cc
	}
}

// WithSessionCache bounds how many validated tokens are kept and for how long.
// A ttl of zero disables the cache.
func WithSessionCache(size int, ttl time.Duration) Option {
	return func(svc *Service) {
		svc.cacheSize = size
		svc.cacheTTL = ttl
	}
}

// WithLoginObserver is called after every login attempt.
func WithLoginObserver(fn func(ok bool)) Option {
	return func(svc *Service) {
		svc.onLogin = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) {
		svc.logger = l
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		svc.now = now
	}
}

// NewService creates the dashboard service.
func NewService(auth ports.Authenticator, records ports.RecordStore, opts ...Option) *Service {
	svc := &Service{
		auth:        auth,
		records:     records,
		cacheSize:   defaultCacheSize,
		cacheTTL:    defaultCacheTTL,
		countryCode: export.DefaultCountryCode,
		logger:      logging.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.cacheTTL > 0 && svc.cacheSize > 0 {
		svc.cache = expirable.NewLRU[string, domain.AdminSession](svc.cacheSize, nil, svc.cacheTTL)
	}
	return svc
}

// Login signs an operator in.
func (s *Service) Login(ctx context.Context, email, password string) (domain.AdminSession, error) {
	ctx, span := startSpan(ctx, "login")
	sess, err := s.auth.SignIn(ctx, strings.TrimSpace(email), password)
	endSpan(span, err)

	if s.onLogin != nil {
		s.onLogin(err == nil)
	}
	if err != nil {
		s.logger.Warn("Admin login failed", "email", email, "err", err)
		return domain.AdminSession{}, err
	}
	if s.cache != nil {
		s.cache.Add(sess.Token, sess)
	}
	s.logger.Info("Admin logged in", "user_id", sess.UserID)
	return sess, nil
}

// Logout revokes the token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if s.cache != nil {
		s.cache.Remove(token)
	}
	if token == "" {
		return nil
	}
	return s.auth.SignOut(ctx, token)
}

// Session resolves a token, from cache when possible.
func (s *Service) Session(ctx context.Context, token string) (domain.AdminSession, error) {
	if token == "" {
		return domain.AdminSession{}, domain.ErrUnauthorized
	}
	if s.cache != nil {
		if sess, ok := s.cache.Get(token); ok {
			if !sess.Expired(s.now()) {
				return sess, nil
			}
			s.cache.Remove(token)
			return domain.AdminSession{}, domain.ErrUnauthorized
		}
	}

	sess, err := s.auth.Session(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return domain.AdminSession{}, err
		}
		return domain.AdminSession{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	if sess.Expired(s.now()) {
		return domain.AdminSession{}, domain.ErrUnauthorized
	}
	if s.cache != nil {
		s.cache.Add(token, sess)
	}
	return sess, nil
}

// authorize resolves the session and scopes ctx to the operator's token.
func (s *Service) authorize(ctx context.Context, token string) (context.Context, error) {
	if _, err := s.Session(ctx, token); err != nil {
		return nil, err
	}
	return ports.WithAccessToken(ctx, token), nil
}

// List returns every candidate, newest first.
func (s *Service) List(ctx context.Context, token string) ([]domain.StoredRecord, error) {
	ctx, err := s.authorize(ctx, token)
	if err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "list")
	records, err := s.records.List(ctx)
	endSpan(span, err)
	return records, err
}

// Get returns one candidate.
func (s *Service) Get(ctx context.Context, token, id string) (domain.StoredRecord, error) {
	records, err := s.List(ctx, token)
	if err != nil {
		return domain.StoredRecord{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.StoredRecord{}, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
}

// Delete removes a candidate.
func (s *Service) Delete(ctx context.Context, token, id string) error {
	ctx, err := s.authorize(ctx, token)
	if err != nil {
		return err
	}
	ctx, span := startSpan(ctx, "delete")
	err = s.records.Delete(ctx, id)
	endSpan(span, err)
	if err == nil {
		s.logger.Info("Candidate deleted", "id", id)
	}
	return err
}

// ExportCSV writes every candidate as CSV.
func (s *Service) ExportCSV(ctx context.Context, token string, w io.Writer) error {
	records, err := s.List(ctx, token)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, records)
}

// WhatsAppLink returns a click-to-chat link greeting the candidate.
func (s *Service) WhatsAppLink(ctx context.Context, token, id string) (string, error) {
	rec, err := s.Get(ctx, token, id)
	if err != nil {
		return "", err
	}
	return export.WhatsAppLink(rec.Phone, s.countryCode, export.Greeting(rec))
}

// Share posts the candidate's summary to the messaging channel.
func (s *Service) Share(ctx context.Context, token, id string) error {
	if s.sharer == nil {
		return ErrSharingDisabled
	}
	rec, err := s.Get(ctx, token, id)
	if err != nil {
		return err
	}
	ctx, span := startSpan(ctx, "share")
	err = s.sharer.Share(ctx, rec)
	endSpan(span, err)
	return err
}

// Sharing reports whether Share has a channel to post to.
func (s *Service) Sharing() bool {
	return s.sharer != nil
}
