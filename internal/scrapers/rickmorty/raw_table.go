package rickmorty

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawTable lays records out as a table whose columns are the union of the keys
// observed across all records, in first-seen order. Missing keys are empty cells,
// strings are unquoted and any other value is kept as compact json.
func RawTable(records []json.RawMessage) ([]string, [][]string, error) {
	var columns []string
	index := map[string]int{}
	parsed := make([]map[string]string, 0, len(records))

	for i, record := range records {
		keys, values, err := orderedFields(record)
		if err != nil {
			return nil, nil, fmt.Errorf("record %d: %w", i, err)
		}
		row := make(map[string]string, len(keys))
		for j, key := range keys {
			if _, seen := index[key]; !seen {
				index[key] = len(columns)
				columns = append(columns, key)
			}
			row[key] = values[j]
		}
		parsed = append(parsed, row)
	}

	rows := make([][]string, len(parsed))
	for i, row := range parsed {
		rows[i] = make([]string, len(columns))
		for key, value := range row {
			rows[i][index[key]] = value
		}
	}
	return columns, rows, nil
}

func orderedFields(record json.RawMessage) ([]string, []string, error) {
	decoder := json.NewDecoder(bytes.NewReader(record))
	tok, err := decoder.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected a json object")
	}

	var keys, values []string
	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected an object key")
		}
		var value json.RawMessage
		err = decoder.Decode(&value)
		if err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		values = append(values, formatCell(value))
	}
	return keys, values, nil
}

func formatCell(value json.RawMessage) string {
	var str string
	if json.Unmarshal(value, &str) == nil {
		return str
	}
	if bytes.Equal(value, []byte("null")) {
		return ""
	}
	var compacted bytes.Buffer
	if json.Compact(&compacted, value) != nil {
		return string(value)
	}
	return compacted.String()
}
