package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/nvandessel/chartline/internal/chart"
	"github.com/nvandessel/chartline/internal/models"
)

var jsonNull = []byte("null")

// Decode parses a JSON array of {xValue, yValue, category?} objects.
// xValue and yValue must be JSON numbers (quoted numbers are rejected) and
// category, when present and non-null, must be a string. Unknown fields are
// ignored. Any other shape yields a *chart.InvalidDataError.
func Decode(r io.Reader) ([]models.DataPoint, error) {
	dec := json.NewDecoder(r)

	var payload json.RawMessage
	if err := dec.Decode(&payload); err != nil {
		return nil, &chart.InvalidDataError{Index: -1, Reason: "payload is not valid JSON: " + err.Error()}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &chart.InvalidDataError{Index: -1, Reason: "unexpected data after JSON array"}
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &chart.InvalidDataError{Index: -1, Reason: "payload must be a JSON array"}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, &chart.InvalidDataError{Index: -1, Reason: "payload must be a JSON array: " + err.Error()}
	}

	points := make([]models.DataPoint, 0, len(items))
	for i, item := range items {
		p, err := decodePoint(i, item)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

func decodePoint(i int, item json.RawMessage) (models.DataPoint, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
		return models.DataPoint{}, &chart.InvalidDataError{Index: i, Reason: "point must be a JSON object"}
	}

	x, err := numberField(i, fields, "xValue")
	if err != nil {
		return models.DataPoint{}, err
	}
	y, err := numberField(i, fields, "yValue")
	if err != nil {
		return models.DataPoint{}, err
	}

	var category string
	if raw, ok := fields["category"]; ok && !bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		if err := json.Unmarshal(raw, &category); err != nil {
			return models.DataPoint{}, &chart.InvalidDataError{Index: i, Field: "category", Reason: "must be a string"}
		}
	}

	return models.DataPoint{XValue: x, YValue: y, Category: category}, nil
}

func numberField(i int, fields map[string]json.RawMessage, name string) (float64, error) {
	raw, ok := fields[name]
	if !ok {
		return 0, &chart.InvalidDataError{Index: i, Field: name, Reason: "missing"}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !(raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) {
		return 0, &chart.InvalidDataError{Index: i, Field: name, Reason: "must be a JSON number"}
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, &chart.InvalidDataError{Index: i, Field: name, Reason: "number out of range"}
	}
	return v, nil
}
