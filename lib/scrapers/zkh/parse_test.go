package zkh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		input    string
		expected *string
	}{
		{"05.03.2024", ptr("2024-03-05")},
		{" 31.12.2023 ", ptr("2023-12-31")},
		{"not-a-date", nil},
		{"", nil},
		{"2024-03-05", nil},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, parseDate(ctx, test.input), "input: %q", test.input)
	}
}

func TestParseMeterValue(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		input    string
		expected int64
	}{
		{"381", 381},
		{"123.9", 123},
		{" 10772 ", 10772},
		{"abc", 0},
		{"", 0},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, parseMeterValue(ctx, test.input), "input: %q", test.input)
	}
}

func TestParseDecimal(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		input    string
		expected *float64
	}{
		{"26.44", fptr(26.44)},
		{"26,44", fptr(26.44)},
		{"1 234,56", fptr(1234.56)},
		{"1 234,56", fptr(1234.56)},
		{"", nil},
		{"n/a", nil},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, parseDecimal(ctx, test.input), "input: %q", test.input)
	}
}

func TestMapUnit(t *testing.T) {
	require.Equal(t, "m²", mapUnit("кв.м"))
	require.Equal(t, "m²", mapUnit("кв.м."))
	require.Equal(t, "m³", mapUnit("куб.м."))
	require.Equal(t, "kWh", mapUnit("кВтч"))
	require.Equal(t, "Gcal", mapUnit("Гкал"))
	// unknown labels pass through
	require.Equal(t, "чел.", mapUnit("чел."))
}

func TestSanitizeSerial(t *testing.T) {
	require.Equal(t, "123456", sanitizeSerial("123456"))
	require.Equal(t, "___12_34", sanitizeSerial("AB-12/34"))
	require.Equal(t, "12_34", sanitizeSerial("12 34"))
}

func TestParseMeterRows(t *testing.T) {
	ctx := context.Background()

	header := []string{"Тип", "Номер", "Ед.", "Дата", "Показание", "x", "y", "z", "Поверка"}
	data := parseMeterRows(ctx, [][]string{
		header,
		{"ХВС", "100-200", "куб.м.", "05.03.2024", "381.9", "", "", "", "01.09.2027"},
		{"Электроэнергия", "300400", "кВтч", "10.03.2024", "10772", "", "", "", "15.01.2026"},
		// rows with too few columns are skipped, not fatal
		{"ГВС", "500", "куб.м.", "05.03.2024", "120"},
	})

	require.Len(t, data.Meters, 2)
	require.Equal(t, ptr("2024-03-10"), data.Date)

	cold, ok := data.Meters["100_200"]
	require.True(t, ok)
	require.Equal(t, MeterRecord{
		Name:                 "ХВС №100-200",
		Units:                "куб.м.",
		SerialNumber:         "100-200",
		TypeName:             "ХВС",
		Value:                381,
		ValueDate:            ptr("2024-03-05"),
		NextVerificationDate: ptr("2027-09-01"),
	}, cold)

	power, ok := data.Meters["300400"]
	require.True(t, ok)
	require.Equal(t, int64(10772), power.Value)
}

func TestParseMeterRowsEmpty(t *testing.T) {
	ctx := context.Background()

	data := parseMeterRows(ctx, nil)
	require.NotNil(t, data.Meters)
	require.Len(t, data.Meters, 0)
	require.Nil(t, data.Date)

	// a header-only table yields no meters
	data = parseMeterRows(ctx, [][]string{{"Тип", "Номер"}})
	require.Len(t, data.Meters, 0)
}

func TestParseTariffRows(t *testing.T) {
	ctx := context.Background()

	data := parseTariffRows(ctx, [][]string{
		{"Услуга", "Норматив", "Ед.", "Тариф", "Дата"},
		{"Холодная вода", "4,85", "куб.м.", "26,44", "01.07.2023"},
		{"Отопление", "", "Гкал", "1 863,21", "01.07.2023"},
		// later duplicates overwrite earlier rows
		{"Холодная вода", "4,85", "куб.м.", "27,10", "01.01.2024"},
	})

	require.Len(t, data.Tariffs, 2)

	water := data.Tariffs["Холодная вода"]
	require.Equal(t, TariffRecord{
		Name:   "Холодная вода",
		Rate:   fptr(4.85),
		Unit:   "m³",
		Tariff: fptr(27.10),
		Date:   ptr("2024-01-01"),
	}, water)

	heating := data.Tariffs["Отопление"]
	require.Nil(t, heating.Rate)
	require.Equal(t, "Gcal", heating.Unit)
	require.Equal(t, fptr(1863.21), heating.Tariff)
}

func ptr(s string) *string {
	return &s
}

func fptr(f float64) *float64 {
	return &f
}
