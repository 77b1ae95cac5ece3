package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/refinery/internal/dataset"
	"github.com/JonMunkholm/refinery/internal/transform"
)

// errMalformedOutput wraps every script output decoding problem.
var errMalformedOutput = errors.New("malformed script output")

// payload is the JSON document written to a script's stdin.
type payload struct {
	Op      string        `json:"op"`
	Headers []string      `json:"headers"`
	Rows    []dataset.Row `json:"rows"`
}

func encodePayload(ds dataset.Dataset, opID string) ([]byte, error) {
	rows := ds.Rows
	if rows == nil {
		rows = []dataset.Row{}
	}
	return json.Marshal(payload{Op: opID, Headers: ds.Headers, Rows: rows})
}

// decodeResult reads a script's stdout:
//
//	{"headers": [...], "rows": [{...}], "affected": 3, "message": "...", "noop": false}
//
// Only "rows" is required. Without "headers" the column order is taken from
// object key order, first row first, which is why the output is walked with
// gjson rather than decoded into a map.
func decodeResult(out []byte, opID string) (transform.Outcome, error) {
	if !gjson.ValidBytes(out) {
		return transform.Outcome{}, fmt.Errorf("%w: not valid JSON", errMalformedOutput)
	}

	rowsRes := gjson.GetBytes(out, "rows")
	if !rowsRes.IsArray() {
		return transform.Outcome{}, fmt.Errorf("%w: missing rows array", errMalformedOutput)
	}

	var headers []string
	seen := make(map[string]bool)
	addHeader := func(h string) {
		if !seen[h] {
			seen[h] = true
			headers = append(headers, h)
		}
	}

	explicit := gjson.GetBytes(out, "headers")
	if explicit.Exists() {
		if !explicit.IsArray() {
			return transform.Outcome{}, fmt.Errorf("%w: headers must be an array", errMalformedOutput)
		}
		for _, h := range explicit.Array() {
			if h.Type != gjson.String {
				return transform.Outcome{}, fmt.Errorf("%w: header %s is not a string", errMalformedOutput, h.Raw)
			}
			if seen[h.Str] {
				return transform.Outcome{}, fmt.Errorf("%w: duplicate header %q", errMalformedOutput, h.Str)
			}
			addHeader(h.Str)
		}
	}

	var (
		rows   []dataset.Row
		rowErr error
	)
	rowsRes.ForEach(func(_, row gjson.Result) bool {
		if !row.IsObject() {
			rowErr = fmt.Errorf("%w: row %d is not an object", errMalformedOutput, len(rows))
			return false
		}
		r := make(dataset.Row)
		row.ForEach(func(key, cell gjson.Result) bool {
			v, err := valueOf(cell)
			if err != nil {
				rowErr = fmt.Errorf("%w: row %d column %q: %v", errMalformedOutput, len(rows), key.Str, err)
				return false
			}
			if !explicit.Exists() {
				addHeader(key.Str)
			}
			r[key.Str] = v
			return true
		})
		if rowErr != nil {
			return false
		}
		rows = append(rows, r)
		return true
	})
	if rowErr != nil {
		return transform.Outcome{}, rowErr
	}

	ds := dataset.New(headers, rows)
	if err := ds.Validate(); err != nil {
		return transform.Outcome{}, fmt.Errorf("%w: %v", errMalformedOutput, err)
	}

	msg := gjson.GetBytes(out, "message").String()
	if msg == "" {
		msg = fmt.Sprintf("Applied %s.", opID)
	}

	return transform.Outcome{
		Dataset:  ds,
		Affected: int(gjson.GetBytes(out, "affected").Int()),
		Message:  msg,
		Noop:     gjson.GetBytes(out, "noop").Bool(),
	}, nil
}

func valueOf(r gjson.Result) (dataset.Value, error) {
	switch r.Type {
	case gjson.Null:
		return dataset.Null(), nil
	case gjson.String:
		return dataset.Str(r.Str), nil
	case gjson.Number:
		return dataset.Num(r.Num), nil
	case gjson.True:
		return dataset.Bool(true), nil
	case gjson.False:
		return dataset.Bool(false), nil
	default:
		return dataset.Value{}, fmt.Errorf("nested value %s", r.Raw)
	}
}
