package googleauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/yungbote/survey-backend/internal/platform/envutil"
	"github.com/yungbote/survey-backend/internal/platform/logger"
)

const (
	DefaultRedirectURL  = "https://developers.google.com/oauthplayground"
	DefaultTokenTimeout = 10 * time.Second
)

var ErrMissingCredentials = errors.New("google oauth client id, secret and refresh token are required")

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	RefreshToken string
	// TokenURL overrides Google's token endpoint.
	TokenURL string
	// Timeout bounds one token request, including refreshes started without a context.
	Timeout time.Duration
}

func ConfigFromEnv() Config {
	redirect := strings.TrimSpace(os.Getenv("REDIRECT_URI"))
	if redirect == "" {
		redirect = DefaultRedirectURL
	}
	return Config{
		ClientID:     strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET")),
		RedirectURL:  redirect,
		RefreshToken: strings.TrimSpace(os.Getenv("GOOGLE_REFRESH_TOKEN")),
		TokenURL:     strings.TrimSpace(os.Getenv("GOOGLE_TOKEN_URL")),
		Timeout:      envutil.Seconds("GOOGLE_TOKEN_TIMEOUT_SECONDS", DefaultTokenTimeout),
	}
}

func (c Config) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// TokenProvider hands out access tokens minted from a long-lived refresh token.
// Nothing is fetched until the first Token call; tokens are reused until they expire.
// Token(ctx) returns when ctx ends; the refresh itself is bounded by Config.Timeout.
type TokenProvider interface {
	TokenSource() oauth2.TokenSource
	Token(ctx context.Context) (*oauth2.Token, error)
}

type tokenProvider struct {
	src oauth2.TokenSource
	log *logger.Logger
}

func New(log *logger.Logger, cfg Config) (TokenProvider, error) {
	if !cfg.Complete() {
		return nil, ErrMissingCredentials
	}
	endpoint := google.Endpoint
	if cfg.TokenURL != "" {
		endpoint = oauth2.Endpoint{AuthURL: google.Endpoint.AuthURL, TokenURL: cfg.TokenURL, AuthStyle: oauth2.AuthStyleInParams}
	}
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     endpoint,
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTokenTimeout
	}
	base := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: cfg.Timeout})
	src := oauth2.ReuseTokenSource(nil, oc.TokenSource(base, &oauth2.Token{RefreshToken: cfg.RefreshToken}))
	return &tokenProvider{
		src: src,
		log: log.With("service", "GoogleTokenProvider"),
	}, nil
}

func (p *tokenProvider) TokenSource() oauth2.TokenSource {
	return &providerSource{p: p}
}

func (p *tokenProvider) Token(ctx context.Context) (*oauth2.Token, error) {
	type result struct {
		tok *oauth2.Token
		err error
	}
	ch := make(chan result, 1)
	go func() {
		tok, err := p.src.Token()
		ch <- result{tok, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			p.log.Warn("Access token refresh failed", "error", r.err)
			return nil, fmt.Errorf("refresh access token: %w", r.err)
		}
		return r.tok, nil
	}
}

type providerSource struct {
	p *tokenProvider
}

func (s *providerSource) Token() (*oauth2.Token, error) {
	return s.p.Token(context.Background())
}
