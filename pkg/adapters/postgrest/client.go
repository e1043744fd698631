// Package postgrest talks to a hosted backend that exposes the candidates
// table through PostgREST and operator accounts through GoTrue.
package postgrest

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	gotrue "github.com/supabase-community/gotrue-go"
	pgrest "github.com/supabase-community/postgrest-go"

	"github.com/aretw0/bookclub/pkg/ports"
)

// DefaultTable is the hosted table that receives submissions.
const DefaultTable = "candidates"

// Client holds the project URL and the public API key. The underlying
// clients carry their headers as state, so one is built per call.
type Client struct {
	baseURL string
	apiKey  string
	table   string
}

// Option configures a Client.
type Option func(*Client)

// WithTable overrides DefaultTable.
func WithTable(table string) Option {
	return func(c *Client) {
		if table != "" {
			c.table = table
		}
	}
}

// New creates a client for the project at baseURL.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		table:   DefaultTable,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rest returns a table client. The bearer is the caller's access token when
// the context carries one, the API key otherwise.
func (c *Client) rest(ctx context.Context) *pgrest.Client {
	bearer := c.apiKey
	if token, ok := ports.AccessToken(ctx); ok {
		bearer = token
	}
	return pgrest.NewClient(c.baseURL+"/rest/v1", "public", map[string]string{
		"apikey":        c.apiKey,
		"Authorization": "Bearer " + bearer,
	})
}

// auth returns a GoTrue client, acting as token when it is set.
func (c *Client) auth(token string) gotrue.Client {
	client := gotrue.New("", c.apiKey).WithCustomGoTrueURL(c.baseURL + "/auth/v1")
	if token != "" {
		client = client.WithToken(token)
	}
	return client
}

var statusPattern = regexp.MustCompile(`status code (\d{3})`)

// statusOf extracts the HTTP status GoTrue errors carry in their text.
func statusOf(err error) int {
	if err == nil {
		return 0
	}
	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}
