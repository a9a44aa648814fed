package preddir

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/thomasbw/chart-runner/internal/model"
)

// The run directory's config.yaml keeps the exact escaping rules the
// downstream ensemble tool was built against, so it is written by hand
// rather than with a YAML library. Flat string/bool/number values only;
// nested structures are unsupported.

const yamlSpecialChars = ":#{}[]\n\t"

func yamlScalar(v interface{}) string {
	switch val := v.(type) {
	case string:
		if strings.ContainsAny(val, yamlSpecialChars) || strings.Contains(val, " ") {
			return `"` + strings.ReplaceAll(val, `"`, `\"`) + `"`
		}
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func marshalFlatYAML(keys []string, values map[string]interface{}) []byte {
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(yamlScalar(values[k]))
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// WriteConfigYAML writes a run directory's config.yaml with keys in the
// order the ensemble tool documents them.
func WriteConfigYAML(path string, rc model.RunConfig) error {
	keys := []string{"input_images_dir", "model", "temperature"}
	values := map[string]interface{}{
		"input_images_dir": rc.InputImagesDir,
		"model":            rc.Model,
		"temperature":      rc.Temperature,
	}
	return os.WriteFile(path, marshalFlatYAML(keys, values), 0o644)
}
