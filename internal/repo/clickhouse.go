package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/miradorstack/mirador-slo/internal/models"
	"github.com/miradorstack/mirador-slo/internal/tables"
)

const patternColumns = `application_id, service_id, service, metric, baseline_state, baseline_value,
	pattern_type, pattern_window, delta_success, delta_latency_p90, support_days, confidence,
	long_term, recency, first_seen, last_seen, detected_at`

// ClickHouseRepo reads behaviour patterns and the service catalogue over the
// ClickHouse HTTP interface. Every value reaches the server as a query
// parameter; nothing is interpolated into SQL text.
type ClickHouseRepo struct {
	endpoint      string
	database      string
	table         string
	featuresTable string
	username      string
	password      string
	httpClient    *http.Client
}

// NewClickHouseRepo constructs a ClickHouse HTTP client.
func NewClickHouseRepo(endpoint, database, table, featuresTable, username, password string, timeout time.Duration) *ClickHouseRepo {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if database == "" {
		database = "default"
	}
	return &ClickHouseRepo{
		endpoint:      strings.TrimRight(endpoint, "/"),
		database:      database,
		table:         table,
		featuresTable: featuresTable,
		username:      username,
		password:      password,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// QueryPatterns returns pattern rows for one directive, ordered by confidence.
func (r *ClickHouseRepo) QueryPatterns(ctx context.Context, q models.PatternQuery) ([]models.PatternRecord, error) {
	if r == nil {
		return nil, fmt.Errorf("clickhouse repo not initialised")
	}
	if r.endpoint == "" {
		return nil, fmt.Errorf("clickhouse endpoint not configured")
	}

	sql, params := buildPatternQuery(q)
	params.Set("param_table", r.table)

	var records []models.PatternRecord
	err := r.query(ctx, sql, params, func(dec *json.Decoder) error {
		var rec models.PatternRecord
		if err := dec.Decode(&rec); err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pattern query failed: %w", err)
	}
	if records == nil {
		records = []models.PatternRecord{}
	}
	return records, nil
}

// FetchServices lists the distinct services that reported features for appID,
// ordered by service id.
func (r *ClickHouseRepo) FetchServices(ctx context.Context, appID int64) ([]models.ServiceCandidate, error) {
	if r == nil {
		return nil, fmt.Errorf("clickhouse repo not initialised")
	}
	if r.endpoint == "" {
		return nil, fmt.Errorf("clickhouse endpoint not configured")
	}

	sql := `SELECT DISTINCT service_id, service
FROM {database:Identifier}.{table:Identifier}
WHERE application_id = {app_id:Int64}
ORDER BY service_id ASC
FORMAT JSONEachRow`
	params := url.Values{}
	params.Set("param_table", r.featuresTable)
	params.Set("param_app_id", strconv.FormatInt(appID, 10))

	var services []models.ServiceCandidate
	err := r.query(ctx, sql, params, func(dec *json.Decoder) error {
		var row struct {
			ServiceID int64  `json:"service_id"`
			Service   string `json:"service"`
		}
		if err := dec.Decode(&row); err != nil {
			return err
		}
		services = append(services, models.ServiceCandidate{
			ServiceID: row.ServiceID,
			Name:      row.Service,
			Path:      tables.ServicePath(row.Service),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service discovery failed: %w", err)
	}
	return services, nil
}

func (r *ClickHouseRepo) query(ctx context.Context, sql string, params url.Values, row func(*json.Decoder) error) error {
	params.Set("param_database", r.database)
	params.Set("database", r.database)
	params.Set("output_format_json_quote_64bit_integers", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/?"+params.Encode(), strings.NewReader(sql))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if r.username != "" {
		req.SetBasicAuth(r.username, r.password)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("clickhouse returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	dec := json.NewDecoder(resp.Body)
	for dec.More() {
		if err := row(dec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode row: %w", err)
		}
	}
	return nil
}

// buildPatternQuery renders the SQL for q and its parameter values. The table
// parameter is left to the caller.
func buildPatternQuery(q models.PatternQuery) (string, url.Values) {
	params := url.Values{}
	params.Set("param_app_id", strconv.FormatInt(q.AppID, 10))
	params.Set("param_start_ms", strconv.FormatInt(q.StartMS, 10))
	params.Set("param_end_ms", strconv.FormatInt(q.EndMS, 10))

	columns := patternColumns
	orderBy := "confidence DESC, detected_at DESC"
	switch q.GroupBy {
	case models.GroupByDayOfWeek:
		columns += ",\n\ttoDayOfWeek(detected_at) AS day_of_week"
		orderBy = "day_of_week ASC, " + orderBy
	case models.GroupByHourOfDay:
		columns += ",\n\ttoHour(detected_at) AS hour_of_day"
		orderBy = "hour_of_day ASC, " + orderBy
	}

	where := []string{"application_id = {app_id:Int64}"}
	if len(q.PatternTypes) > 0 {
		where = append(where, "pattern_type IN {pattern_types:Array(String)}")
		params.Set("param_pattern_types", arrayLiteral(q.PatternTypes))
	}

	start := "fromUnixTimestamp64Milli({start_ms:Int64})"
	end := "fromUnixTimestamp64Milli({end_ms:Int64})"
	switch q.Strategy {
	case models.StrategyOverlap:
		where = append(where, "first_seen <= "+end, "last_seen >= "+start)
	case models.StrategyHistorical:
		where = append(where, "last_seen < "+start)
		orderBy = "pattern_type ASC, " + orderBy
	default:
		where = append(where, "detected_at >= "+start, "detected_at <= "+end)
	}

	if q.ServiceID != nil {
		where = append(where, "service_id = {service_id:Int64}")
		params.Set("param_service_id", strconv.FormatInt(*q.ServiceID, 10))
	}

	sql := fmt.Sprintf("SELECT\n\t%s\nFROM {database:Identifier}.{table:Identifier}\nWHERE %s\nORDER BY %s\nFORMAT JSONEachRow",
		columns, strings.Join(where, "\n  AND "), orderBy)
	return sql, params
}

// arrayLiteral encodes values as a ClickHouse Array(String) parameter.
func arrayLiteral(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `'`, `\'`)
		quoted[i] = "'" + v + "'"
	}
	return "[" + strings.Join(quoted, ",") + "]"
}
