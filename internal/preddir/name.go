package preddir

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TempTag formats a sampling temperature for use in a run name:
// 2.0 -> "2", 0.75 -> "0p75", 0.0 -> "0".
func TempTag(t float64) string {
	s := strconv.FormatFloat(t, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return strings.ReplaceAll(s, ".", "p")
}

// RunName derives the run directory name from a timestamp and the batch
// parameters. The dataset tag is the second path segment of imagesDir
// (e.g. "ChartQA Dataset" out of "data/ChartQA Dataset/test/png"), spaces
// mapped to underscores; a single-segment path uses that segment. The
// trailing underscore is load-bearing: the downstream ensemble tool was
// built against names of this exact shape.
func RunName(now time.Time, imagesDir, model string, temperature float64) string {
	segments := strings.Split(imagesDir, "/")
	dataset := segments[len(segments)-1]
	if len(segments) >= 2 {
		dataset = segments[1]
	}
	dataset = strings.ReplaceAll(dataset, " ", "_")

	return fmt.Sprintf("%s__%s_%s_temp%s_",
		now.Format("2006-01-02_150405"),
		dataset,
		model,
		TempTag(temperature),
	)
}
