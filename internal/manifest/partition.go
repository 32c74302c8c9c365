package manifest

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Partitions tags a resource with the dataset slices it covers, e.g.
// {"year": ["2020"]} or {"year_quarter": ["1995q1", "1995q2"]}.
type Partitions map[string]PartitionValue

// PartitionValue is the value side of a partition tag. Descriptors written by
// other tooling use scalars for single-valued partitions and arrays for
// multi-valued ones; both forms decode into a list of strings and numbers are
// kept as their decimal representation.
type PartitionValue []string

// UnmarshalJSON accepts a scalar (string or number) or an array of scalars.
func (v *PartitionValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, err := scalarString(item)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		*v = out
		return nil
	default:
		s, err := scalarString(raw)
		if err != nil {
			return err
		}
		*v = []string{s}
		return nil
	}
}

// MarshalJSON writes single-valued partitions as scalars and multi-valued
// partitions as arrays, matching the descriptor shape we read.
func (v PartitionValue) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]string(v))
}

func scalarString(raw any) (string, error) {
	switch val := raw.(type) {
	case string:
		return val, nil
	case float64:
		// JSON numbers in partition values are always integers (years).
		return strconv.FormatInt(int64(val), 10), nil
	case bool:
		return strconv.FormatBool(val), nil
	case nil:
		return "", fmt.Errorf("partition value must not be null")
	default:
		return "", fmt.Errorf("unsupported partition value type %T", raw)
	}
}

// Keys returns the partition key names in sorted order.
func (p Partitions) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SingleYear reads a single-valued integer partition, commonly "year".
func (p Partitions) SingleYear() (int, bool) {
	v, ok := p["year"]
	if !ok || len(v) != 1 {
		return 0, false
	}
	year, err := strconv.Atoi(v[0])
	if err != nil {
		return 0, false
	}
	return year, true
}
