package codec

import (
	"encoding/json"
	"sort"
	"strings"
)

// DefaultFields are returned when a request's fields parameter is empty,
// matching the reference FieldFilter.DEFAULT_FIELDS.
var DefaultFields = map[string]struct{}{
	"id":             {},
	"status":         {},
	"language_id":    {},
	"stdout":         {},
	"stderr":         {},
	"stdin":          {},
	"compile_output": {},
	"created_at":     {},
}

// AllFields is the complete set of projectable submission fields,
// matching the reference FieldFilter.ALL_FIELDS.
var AllFields = map[string]struct{}{
	"id":                                          {},
	"source_code":                                 {},
	"language_id":                                 {},
	"stdin":                                       {},
	"additional_files":                            {},
	"expected_output":                             {},
	"cpu_time_limit":                              {},
	"cpu_extra_time":                              {},
	"wall_time_limit":                             {},
	"memory_limit":                                {},
	"max_processes_and_or_threads":                {},
	"max_file_size":                               {},
	"number_of_runs":                              {},
	"enable_per_process_and_thread_time_limit":    {},
	"enable_per_process_and_thread_memory_limit":  {},
	"redirect_stderr_to_stdout":                   {},
	"enable_network":                              {},
	"language":                                    {},
	"status":                                      {},
	"stdout":                                      {},
	"stderr":                                      {},
	"compile_output":                              {},
	"meta":                                        {},
	"created_at":                                  {},
}

// ParseFields parses the `fields` query parameter into a projection set.
// Rules mirror FieldFilter.parse_fields: empty/blank -> nil (caller uses
// DefaultFields); "all" -> AllFields; a comma list may include the
// "default" token to seed DefaultFields before adding extras; "id" is
// always included; unknown field names are silently dropped.
func ParseFields(raw string) map[string]struct{} {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.ToLower(raw) == "all" {
		return cloneSet(AllFields)
	}

	requested := map[string]struct{}{}
	for _, f := range strings.Split(raw, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			requested[f] = struct{}{}
		}
	}

	var result map[string]struct{}
	if _, ok := requested["default"]; ok {
		delete(requested, "default")
		result = cloneSet(DefaultFields)
		for f := range requested {
			result[f] = struct{}{}
		}
	} else {
		result = requested
		result["id"] = struct{}{}
	}

	valid := map[string]struct{}{}
	for f := range result {
		if _, ok := AllFields[f]; ok {
			valid[f] = struct{}{}
		}
	}
	if len(valid) == 0 {
		return nil
	}
	return valid
}

// FilterData projects a JSON-object-shaped map down to the requested
// field set, defaulting to DefaultFields when fields is nil.
func FilterData(data map[string]interface{}, fields map[string]struct{}) map[string]interface{} {
	if fields == nil {
		fields = DefaultFields
	}
	out := make(map[string]interface{}, len(fields))
	for k, v := range data {
		if _, ok := fields[k]; ok {
			out[k] = v
		}
	}
	return out
}

// FilterList projects every element of a list the same way.
func FilterList(dataList []map[string]interface{}, fields map[string]struct{}) []map[string]interface{} {
	out := make([]map[string]interface{}, len(dataList))
	for i, d := range dataList {
		out[i] = FilterData(d, fields)
	}
	return out
}

// ToMap renders any JSON-tagged value into a generic field map suitable
// for FilterData/FilterList, so projection works uniformly across the
// Submission and Snapshot shapes without hand-written field lists.
func ToMap(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SortedFieldNames is a small convenience used by tests and diagnostics
// to get deterministic output when iterating a projection set.
func SortedFieldNames(fields map[string]struct{}) []string {
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}

func cloneSet(src map[string]struct{}) map[string]struct{} {
	dst := make(map[string]struct{}, len(src))
	for k := range src {
		dst[k] = struct{}{}
	}
	return dst
}
