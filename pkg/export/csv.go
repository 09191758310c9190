package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigFastest

// writeCSV materializes rows at path. The header is the union of all
// observed fields, sorted so repeated exports of the same data produce
// byte-identical files. Returns the row count and the file size.
func writeCSV(path string, rows []map[string]any) (int, int64, error) {
	columns := columnUnion(rows)

	f, err := os.Create(path)
	if err != nil {
		return 0, 0, fmt.Errorf("create artifact: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(columns) > 0 {
		if err := w.Write(columns); err != nil {
			return 0, 0, fmt.Errorf("write header: %w", err)
		}
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = renderCell(row[col])
		}
		if err := w.Write(record); err != nil {
			return 0, 0, fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, 0, fmt.Errorf("flush artifact: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		return 0, 0, fmt.Errorf("stat artifact: %w", err)
	}
	return len(rows), info.Size(), nil
}

func columnUnion(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	var columns []string
	for _, row := range rows {
		for col := range row {
			if _, ok := seen[col]; !ok {
				seen[col] = struct{}{}
				columns = append(columns, col)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

// renderCell formats one value for CSV. JSON numbers arrive as float64;
// integral ones are written without a fractional part so offsets and ids
// round-trip the way the original tabular output had them. Nested
// structures are embedded as JSON.
func renderCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
