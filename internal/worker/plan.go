package worker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var inputExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// IsSupportedInput reports whether path has an image extension the loader understands.
func IsSupportedInput(path string) bool {
	return inputExtensions[strings.ToLower(filepath.Ext(path))]
}

// PlanDirectory builds one task per supported image in inputDir (non-recursive),
// writing <name>-<style>.<format> into outputDir. Tasks are sorted by input path.
func PlanDirectory(inputDir, outputDir string, styles []string, format string) ([]Task, error) {
	if len(styles) == 0 {
		return nil, fmt.Errorf("at least one style is required")
	}
	if format == "" {
		format = "png"
	}
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input dir: %w", err)
	}

	var inputs []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedInput(e.Name()) {
			continue
		}
		inputs = append(inputs, filepath.Join(inputDir, e.Name()))
	}
	sort.Strings(inputs)

	tasks := make([]Task, 0, len(inputs)*len(styles))
	for _, in := range inputs {
		base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
		for _, s := range styles {
			tasks = append(tasks, Task{
				Style:  s,
				Input:  in,
				Output: filepath.Join(outputDir, fmt.Sprintf("%s-%s.%s", base, s, strings.TrimPrefix(format, "."))),
			})
		}
	}
	return tasks, nil
}
