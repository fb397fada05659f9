package zkh

import (
	"context"
	"log/slog"
	"net/http"
	"zkhmon-backend/lib/htmljson"
	"zkhmon-backend/lib/htmltable"

	"go.opentelemetry.io/otel/codes"
)

const (
	countersRowSelector = "#countersForm table tr"
	tariffsRowSelector  = "#tariffsForm table tr"
)

// fetchRows performs an authenticated GET and extracts table rows from
// the response. A nil row slice means the selector found no table, which
// callers treat as an empty (not failed) result.
func (c *Client) fetchRows(ctx context.Context, path, selector string) ([][]string, error) {
	if c.state != stateLoggedIn {
		return nil, &SequenceError{Op: path, Missing: "authenticated session"}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("Cookie", c.authenticatedCookieHeader()).
		SetHeader("Referer", c.resolve(mainPath)).
		Get(path)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		return nil, &StatusError{Op: path, StatusCode: res.StatusCode()}
	}

	doc, err := htmljson.Parse(res.String())
	if err != nil {
		return nil, err
	}
	return htmltable.Rows(doc, selector), nil
}

// FetchMeters scrapes the counters page into meter records keyed by
// sanitized serial number.
func (c *Client) FetchMeters(ctx context.Context) (MeterData, error) {
	ctx, span := tracer.Start(ctx, "client:FetchMeters")
	defer span.End()

	rows, err := c.fetchRows(ctx, countersPath, countersRowSelector)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch meters")
		return MeterData{}, err
	}
	if rows == nil {
		slog.WarnContext(ctx, "no meter table rows found", "selector", countersRowSelector)
		return MeterData{Meters: map[string]MeterRecord{}}, nil
	}
	return parseMeterRows(ctx, rows), nil
}

// FetchTariffs scrapes the tariffs page into tariff records keyed by
// tariff name.
func (c *Client) FetchTariffs(ctx context.Context) (TariffData, error) {
	ctx, span := tracer.Start(ctx, "client:FetchTariffs")
	defer span.End()

	rows, err := c.fetchRows(ctx, tariffsPath, tariffsRowSelector)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch tariffs")
		return TariffData{}, err
	}
	if rows == nil {
		slog.WarnContext(ctx, "no tariff table rows found", "selector", tariffsRowSelector)
		return TariffData{Tariffs: map[string]TariffRecord{}}, nil
	}
	return parseTariffRows(ctx, rows), nil
}

// Fetch runs one full scrape cycle: preflight, login, meters, tariffs,
// strictly in that order. A meters failure aborts the cycle; tariffs are
// supplementary and degrade to an empty map on failure.
func (c *Client) Fetch(ctx context.Context) (FetchResult, error) {
	ctx, span := tracer.Start(ctx, "client:Fetch")
	defer span.End()

	err := c.Preflight(ctx)
	if err != nil {
		return FetchResult{}, err
	}
	err = c.Login(ctx)
	if err != nil {
		return FetchResult{}, err
	}

	meters, err := c.FetchMeters(ctx)
	if err != nil {
		return FetchResult{}, err
	}

	tariffs, err := c.FetchTariffs(ctx)
	if err != nil {
		slog.WarnContext(ctx, "tariffs fetch failed, continuing without tariffs", "err", err)
		tariffs = TariffData{Tariffs: map[string]TariffRecord{}}
	}

	return FetchResult{
		Meters:  meters.Meters,
		Tariffs: tariffs.Tariffs,
		Date:    meters.Date,
	}, nil
}
