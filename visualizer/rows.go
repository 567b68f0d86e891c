package visualizer

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/payload"
)

// row is one player or session from a metrics payload.
type row struct {
	id     string
	fields map[string]interface{}
}

var idFields = []string{"PlayerID", "SessionID", "player_id", "session_id", "id"}

// decodeRows accepts an object keyed by player or session id, or a list of
// records carrying their own id. Rows come back sorted by id. Entries that
// are not records are skipped and counted.
func decodeRows(raw payload.Raw) ([]row, int, error) {
	if raw.IsEmpty() {
		return nil, 0, nil
	}
	var v interface{}
	if err := raw.Decode(&v); err != nil {
		return nil, 0, err
	}

	var rows []row
	skipped := 0
	switch x := v.(type) {
	case map[string]interface{}:
		for id, rec := range x {
			fields, ok := rec.(map[string]interface{})
			if !ok {
				skipped++
				continue
			}
			rows = append(rows, row{id: id, fields: fields})
		}
	case []interface{}:
		for i, rec := range x {
			fields, ok := rec.(map[string]interface{})
			if !ok {
				skipped++
				continue
			}
			rows = append(rows, row{id: rowID(fields, i), fields: fields})
		}
	default:
		return nil, 0, errors.Mark(
			errors.Newf("metrics payload must be an object or a list, got %s", jsonKind(v)),
			errors.ErrMalformedPayload)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].id < rows[j].id })
	return rows, skipped, nil
}

func rowID(fields map[string]interface{}, index int) string {
	for _, name := range idFields {
		switch id := fields[name].(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return strconv.FormatFloat(id, 'f', -1, 64)
		}
	}
	return strconv.Itoa(index)
}

func (r row) number(metric string) (float64, bool) {
	return payload.Number(r.fields[metric])
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case float64, json.Number:
		return "a number"
	case string:
		return "a string"
	default:
		return "an unknown value"
	}
}
