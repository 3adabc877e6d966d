package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/miradorstack/mirador-slo/internal/models"
)

// StatsAPIClient reads per-transaction SLO statistics from the error-budget
// statistics service. Requests carry a bearer token obtained with the
// resource-owner password grant and reused until it expires.
type StatsAPIClient struct {
	baseURL          string
	transactionsPath string
	pageSize         int
	oauth            *oauth2.Config
	username         string
	password         string
	httpClient       *http.Client

	once   sync.Once
	tokens oauth2.TokenSource
}

// NewStatsAPIClient constructs a statistics client. An empty tokenURL disables
// authentication.
func NewStatsAPIClient(baseURL, transactionsPath, tokenURL, clientID, username, password string, pageSize int, timeout time.Duration) *StatsAPIClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if pageSize <= 0 {
		pageSize = 2000
	}
	c := &StatsAPIClient{
		baseURL:          strings.TrimRight(baseURL, "/"),
		transactionsPath: transactionsPath,
		pageSize:         pageSize,
		username:         username,
		password:         password,
		httpClient:       &http.Client{Timeout: timeout},
	}
	if tokenURL != "" {
		c.oauth = &oauth2.Config{
			ClientID: clientID,
			Endpoint: oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
		}
	}
	return c
}

type passwordGrant struct {
	conf     *oauth2.Config
	username string
	password string
	client   *http.Client
}

func (p passwordGrant) Token() (*oauth2.Token, error) {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, p.client)
	tok, err := p.conf.PasswordCredentialsToken(ctx, p.username, p.password)
	if err != nil {
		return nil, fmt.Errorf("obtain access token: %w", err)
	}
	return tok, nil
}

func (c *StatsAPIClient) tokenSource() oauth2.TokenSource {
	c.once.Do(func() {
		if c.oauth == nil {
			return
		}
		c.tokens = oauth2.ReuseTokenSource(nil, passwordGrant{
			conf:     c.oauth,
			username: c.username,
			password: c.password,
			client:   c.httpClient,
		})
	})
	return c.tokens
}

func (c *StatsAPIClient) client() *http.Client {
	ts := c.tokenSource()
	if ts == nil {
		return c.httpClient
	}
	return &http.Client{
		Timeout:   c.httpClient.Timeout,
		Transport: &oauth2.Transport{Source: ts, Base: c.httpClient.Transport},
	}
}

// FetchTransactions returns the raw transaction records for the query window.
// Service filtering happens downstream; the API has no service parameter.
func (c *StatsAPIClient) FetchTransactions(ctx context.Context, q models.HealthQuery) ([]models.Transaction, error) {
	if c == nil {
		return nil, fmt.Errorf("statistics client not initialised")
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("statistics base URL not configured")
	}

	params := url.Values{}
	params.Set("application_id", strconv.FormatInt(q.AppID, 10))
	params.Set("page_id", "0")
	params.Set("page_size", strconv.Itoa(c.pageSize))
	params.Set("range", "CUSTOM")
	params.Set("index", string(q.Index))
	params.Set("start_time", strconv.FormatInt(q.StartMS, 10))
	params.Set("end_time", strconv.FormatInt(q.EndMS, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolvePath(c.transactionsPath)+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("statistics request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("statistics API returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	var txs []models.Transaction
	if err := json.NewDecoder(resp.Body).Decode(&txs); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

func (c *StatsAPIClient) resolvePath(p string) string {
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}
