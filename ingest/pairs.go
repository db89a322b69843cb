package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/infigaming-com/dolar-feed/store"
	"go.uber.org/zap"
)

var (
	ErrInvalidJSON = errors.New("document is not valid JSON")

	ErrWrongShape     = errors.New("pair is not an array of at least two elements")
	ErrBadTimestamp   = errors.New("timestamp is not an integer number of milliseconds")
	ErrOutOfRange     = errors.New("timestamp outside the DATETIME range")
	ErrBadValue       = errors.New("value is not a number")
	ErrNonFiniteValue = errors.New("value is not finite")
)

const (
	minYear = 1000
	maxYear = 9999
)

// RowResult is the outcome of converting one raw pair: either a point or the
// reason it was skipped.
type RowResult struct {
	point  store.RatePoint
	reason error
}

func Ok(p store.RatePoint) RowResult {
	return RowResult{point: p}
}

func Skip(reason error) RowResult {
	if reason == nil {
		reason = ErrWrongShape
	}
	return RowResult{reason: reason}
}

func (r RowResult) Point() (store.RatePoint, bool) {
	return r.point, r.reason == nil
}

func (r RowResult) Reason() error {
	return r.reason
}

// ParseDocument splits a feed document into its raw pairs. Syntactically
// invalid input returns ErrInvalidJSON; a valid document that is not an array
// carries no pairs.
func ParseDocument(data []byte) ([]json.RawMessage, error) {
	if !json.Valid(data) {
		return nil, ErrInvalidJSON
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil
	}
	var pairs []json.RawMessage
	if err := json.Unmarshal(trimmed, &pairs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return pairs, nil
}

// ConvertPair turns [milliseconds, value] into a RatePoint. Elements past the
// second are ignored.
func ConvertPair(raw json.RawMessage) RowResult {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || len(elems) < 2 {
		return Skip(ErrWrongShape)
	}

	ms, err := parseMillis(elems[0])
	if err != nil {
		return Skip(err)
	}
	fecha := time.UnixMilli(ms).UTC()
	if y := fecha.Year(); y < minYear || y > maxYear {
		return Skip(fmt.Errorf("%w: %d", ErrOutOfRange, ms))
	}

	valor, err := parseValue(elems[1])
	if err != nil {
		return Skip(err)
	}
	return Ok(store.RatePoint{Fecha: fecha, Valor: valor})
}

// ConvertPairs converts every pair and logs each skipped one with its
// zero-based index. The returned rows keep document order.
func ConvertPairs(lg *zap.Logger, pairs []json.RawMessage) ([]store.RatePoint, int) {
	rows := make([]store.RatePoint, 0, len(pairs))
	skipped := 0
	for i, raw := range pairs {
		res := ConvertPair(raw)
		p, ok := res.Point()
		if !ok {
			skipped++
			lg.Warn("Fila inválida en índice",
				zap.Int("index", i),
				zap.ByteString("raw", raw),
				zap.Error(res.Reason()))
			continue
		}
		rows = append(rows, p)
	}
	return rows, skipped
}

func decodeScalar(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func parseMillis(raw json.RawMessage) (int64, error) {
	v, err := decodeScalar(raw)
	if err != nil {
		return 0, ErrBadTimestamp
	}
	switch t := v.(type) {
	case json.Number:
		if ms, err := t.Int64(); err == nil {
			return ms, nil
		}
		f, err := t.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
			return 0, ErrBadTimestamp
		}
		return int64(f), nil
	case string:
		ms, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, ErrBadTimestamp
		}
		return ms, nil
	default:
		return 0, ErrBadTimestamp
	}
}

func parseValue(raw json.RawMessage) (float64, error) {
	v, err := decodeScalar(raw)
	if err != nil {
		return 0, ErrBadValue
	}
	var f float64
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case string:
		s := strings.TrimSpace(t)
		if strings.ContainsAny(s, "xX") {
			return 0, ErrBadValue
		}
		f, err = strconv.ParseFloat(s, 64)
	default:
		return 0, ErrBadValue
	}
	switch {
	case errors.Is(err, strconv.ErrRange):
		return 0, ErrNonFiniteValue
	case err != nil:
		return 0, ErrBadValue
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, ErrNonFiniteValue
	}
	return f, nil
}
