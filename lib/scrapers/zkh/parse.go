package zkh

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type MeterRecord struct {
	Name         string `json:"name"`
	Units        string `json:"units"`
	SerialNumber string `json:"serial_number"`
	TypeName     string `json:"type_name"`
	// Value is the reading truncated toward zero, never negative in
	// practice, 0 when the cell could not be parsed.
	Value                int64   `json:"value"`
	ValueDate            *string `json:"value_date"`
	NextVerificationDate *string `json:"next_verification_date"`
}

type TariffRecord struct {
	Name   string   `json:"name"`
	Rate   *float64 `json:"rate"`
	Unit   string   `json:"unit"`
	Tariff *float64 `json:"tariff"`
	Date   *string  `json:"date"`
}

type MeterData struct {
	Meters map[string]MeterRecord `json:"meters"`
	// Date is the maximum reading date across meters, the
	// "last updated" marker for the whole snapshot.
	Date *string `json:"date"`
}

type TariffData struct {
	Tariffs map[string]TariffRecord `json:"tariffs"`
}

// FetchResult is the combined output of one scrape cycle.
type FetchResult struct {
	Meters  map[string]MeterRecord  `json:"meters"`
	Tariffs map[string]TariffRecord `json:"tariffs"`
	Date    *string                 `json:"date"`
}

// counters.action table layout, by cell position:
//
//	0 meter type name
//	1 serial number
//	2 units of measurement
//	3 reading date (DD.MM.YYYY)
//	4 reading value
//	5-7 present in markup, unused here
//	8 next verification date (DD.MM.YYYY)
const (
	meterColType             = 0
	meterColSerial           = 1
	meterColUnits            = 2
	meterColValueDate        = 3
	meterColValue            = 4
	meterColNextVerification = 8

	meterColumns = 9
)

// tariffs.action table layout, by cell position:
//
//	0 tariff name
//	1 consumption norm, surfaced as "rate"
//	2 units of measurement
//	3 tariff price
//	4 effective date (DD.MM.YYYY)
const (
	tariffColName = 0
	tariffColRate = 1
	tariffColUnit = 2
	tariffColCost = 3
	tariffColDate = 4

	tariffColumns = 5
)

const portalDateLayout = "02.01.2006"

var nonDigit = regexp.MustCompile(`[^0-9]`)

// unit labels on the portal mapped to standard symbols, anything
// unrecognized passes through unchanged
var unitSymbols = map[string]string{
	"кв.м":   "m²",
	"кв.м.":  "m²",
	"куб.м.": "m³",
	"кВтч":   "kWh",
	"Гкал":   "Gcal",
}

// parseDate converts the portal's DD.MM.YYYY dates to ISO YYYY-MM-DD.
// Unparsable dates become nil and a warning, never an error.
func parseDate(ctx context.Context, value string) *string {
	t, err := time.Parse(portalDateLayout, strings.TrimSpace(value))
	if err != nil {
		slog.WarnContext(ctx, "failed to parse date", "value", value)
		return nil
	}
	iso := t.Format("2006-01-02")
	return &iso
}

// parseMeterValue truncates the reading toward zero. Parse failures
// degrade to 0 so a single bad cell never drops the meter.
func parseMeterValue(ctx context.Context, value string) int64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		slog.WarnContext(ctx, "failed to parse meter value", "value", value)
		return 0
	}
	return int64(f)
}

// parseDecimal handles the portal's localized numbers: digit-group
// spaces stripped, decimal comma converted to a point.
func parseDecimal(ctx context.Context, value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	cleaned := strings.NewReplacer(" ", "", " ", "", ",", ".").Replace(value)
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		slog.WarnContext(ctx, "failed to parse decimal", "value", value)
		return nil
	}
	return &f
}

func mapUnit(unit string) string {
	if symbol, ok := unitSymbols[unit]; ok {
		return symbol
	}
	return unit
}

// sanitizeSerial turns a serial number into a stable record key,
// replacing every non-digit character.
func sanitizeSerial(serial string) string {
	return nonDigit.ReplaceAllString(serial, "_")
}

func parseMeterRows(ctx context.Context, rows [][]string) MeterData {
	if len(rows) < 2 {
		return MeterData{Meters: map[string]MeterRecord{}}
	}

	meters := map[string]MeterRecord{}
	var maxDate *string

	// first row is the header
	for _, row := range rows[1:] {
		if len(row) < meterColumns {
			slog.WarnContext(ctx, "skipping meter row with insufficient columns", "columns", len(row))
			continue
		}

		typeName := strings.TrimSpace(row[meterColType])
		serial := strings.TrimSpace(row[meterColSerial])

		valueDate := parseDate(ctx, row[meterColValueDate])
		if valueDate != nil && (maxDate == nil || *valueDate > *maxDate) {
			maxDate = valueDate
		}

		meters[sanitizeSerial(serial)] = MeterRecord{
			Name:                 typeName + " №" + serial,
			Units:                strings.TrimSpace(row[meterColUnits]),
			SerialNumber:         serial,
			TypeName:             typeName,
			Value:                parseMeterValue(ctx, row[meterColValue]),
			ValueDate:            valueDate,
			NextVerificationDate: parseDate(ctx, row[meterColNextVerification]),
		}
	}

	return MeterData{Meters: meters, Date: maxDate}
}

func parseTariffRows(ctx context.Context, rows [][]string) TariffData {
	if len(rows) < 2 {
		return TariffData{Tariffs: map[string]TariffRecord{}}
	}

	tariffs := map[string]TariffRecord{}

	// first row is the header; duplicate names overwrite earlier rows
	for _, row := range rows[1:] {
		if len(row) < tariffColumns {
			slog.WarnContext(ctx, "skipping tariff row with insufficient columns", "columns", len(row))
			continue
		}

		name := strings.TrimSpace(row[tariffColName])
		tariffs[name] = TariffRecord{
			Name:   name,
			Rate:   parseDecimal(ctx, row[tariffColRate]),
			Unit:   mapUnit(strings.TrimSpace(row[tariffColUnit])),
			Tariff: parseDecimal(ctx, row[tariffColCost]),
			Date:   parseDate(ctx, row[tariffColDate]),
		}
	}

	return TariffData{Tariffs: tariffs}
}
