package sandbox

import (
	"os"
	"strings"
)

// parseMetadata reads an isolate --meta file into a flat string map.
// Isolate's own key set (status, exitcode, exitsig, time, time-wall,
// cg-mem, message, ...) is preserved verbatim as Outcome.Meta rather
// than typed out field-by-field, since the Processor is the layer that
// interprets it (compile vs run, multi-run averaging). Mirrors
// parseMetadata's line-scanning, minus its eager numeric conversion.
func parseMetadata(path string) (map[string]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	meta := map[string]string{}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		meta[parts[0]] = parts[1]
	}
	return meta, nil
}
