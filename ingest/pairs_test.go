package ingest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    int
		wantErr error
	}{
		{name: "array of pairs", data: `[[1,2],[3,4]]`, want: 2},
		{name: "empty array", data: `[]`, want: 0},
		{name: "leading whitespace", data: " \n[[1,2]]", want: 1},
		{name: "object is not an array", data: `{"a":1}`, want: 0},
		{name: "scalar", data: `42`, want: 0},
		{name: "truncated", data: `[[1,2]`, wantErr: ErrInvalidJSON},
		{name: "not json", data: `hola`, wantErr: ErrInvalidJSON},
		{name: "empty", data: ``, wantErr: ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, err := ParseDocument([]byte(tt.data))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, pairs, tt.want)
		})
	}
}

func TestConvertPair(t *testing.T) {
	sept11 := time.Date(2024, 9, 11, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		raw       string
		wantFecha time.Time
		wantValor float64
		wantErr   error
	}{
		{name: "integer millis and float", raw: `[1726012800000, 4015.2]`, wantFecha: sept11, wantValor: 4015.2},
		{name: "integer value", raw: `[1726012800000, 4015]`, wantFecha: sept11, wantValor: 4015},
		{name: "extra elements ignored", raw: `[1726012800000, 1.5, "x"]`, wantFecha: sept11, wantValor: 1.5},
		{name: "float millis truncated", raw: `[1726012800000.9, 1]`, wantFecha: sept11, wantValor: 1},
		{name: "exponent millis", raw: `[1.7260128e12, 1]`, wantFecha: sept11, wantValor: 1},
		{name: "string millis", raw: `["1726012800000", "4015.20"]`, wantFecha: sept11, wantValor: 4015.2},
		{name: "sub-second millis kept", raw: `[1726012800123, 1]`, wantFecha: sept11.Add(123 * time.Millisecond), wantValor: 1},
		{name: "negative value", raw: `[1726012800000, -0.5]`, wantFecha: sept11, wantValor: -0.5},
		{name: "single element", raw: `[1726012800000]`, wantErr: ErrWrongShape},
		{name: "object element", raw: `{"t":1,"v":2}`, wantErr: ErrWrongShape},
		{name: "null element", raw: `null`, wantErr: ErrWrongShape},
		{name: "string element", raw: `"12"`, wantErr: ErrWrongShape},
		{name: "non numeric timestamp", raw: `["ayer", 1]`, wantErr: ErrBadTimestamp},
		{name: "decimal string timestamp", raw: `["1.5", 1]`, wantErr: ErrBadTimestamp},
		{name: "null timestamp", raw: `[null, 1]`, wantErr: ErrBadTimestamp},
		{name: "bool timestamp", raw: `[true, 1]`, wantErr: ErrBadTimestamp},
		{name: "timestamp before year 1000", raw: `[-40000000000000, 1]`, wantErr: ErrOutOfRange},
		{name: "timestamp after year 9999", raw: `[300000000000000, 1]`, wantErr: ErrOutOfRange},
		{name: "null value", raw: `[1726012800000, null]`, wantErr: ErrBadValue},
		{name: "word value", raw: `[1726012800000, "mucho"]`, wantErr: ErrBadValue},
		{name: "hex value", raw: `[1726012800000, "0x10"]`, wantErr: ErrBadValue},
		{name: "nan value", raw: `[1726012800000, "NaN"]`, wantErr: ErrNonFiniteValue},
		{name: "infinite value", raw: `[1726012800000, "inf"]`, wantErr: ErrNonFiniteValue},
		{name: "overflowing value", raw: `[1726012800000, "1e400"]`, wantErr: ErrNonFiniteValue},
		{name: "overflowing number", raw: `[1726012800000, 1e400]`, wantErr: ErrNonFiniteValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ConvertPair(json.RawMessage(tt.raw))
			p, ok := res.Point()
			if tt.wantErr != nil {
				assert.False(t, ok)
				assert.ErrorIs(t, res.Reason(), tt.wantErr)
				return
			}
			require.True(t, ok, "unexpected skip: %v", res.Reason())
			assert.True(t, p.Fecha.Equal(tt.wantFecha), "fecha %s", p.Fecha)
			assert.Equal(t, time.UTC, p.Fecha.Location())
			assert.Equal(t, tt.wantValor, p.Valor)
		})
	}
}

func TestConvertPairsLogsSkippedIndexes(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	lg := zap.New(core)

	pairs, err := ParseDocument([]byte(`[[1726012800000, 1], "basura", [1726099200000, 2], [1726185600000]]`))
	require.NoError(t, err)

	rows, skipped := ConvertPairs(lg, pairs)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, 1.0, rows[0].Valor)
	assert.Equal(t, 2.0, rows[1].Valor)

	entries := logs.FilterMessage("Fila inválida en índice").AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].ContextMap()["index"])
	assert.Equal(t, `"basura"`, entries[0].ContextMap()["raw"])
	assert.Equal(t, int64(3), entries[1].ContextMap()["index"])
}

func TestSkipDefaultsReason(t *testing.T) {
	res := Skip(nil)
	_, ok := res.Point()
	assert.False(t, ok)
	assert.ErrorIs(t, res.Reason(), ErrWrongShape)
}
