package migrate

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks that every migration file follows the goose naming
// convention and that version prefixes are unique.
func ValidateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	seen := map[string]string{}
	var problems []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		match := sqlFileRe.FindStringSubmatch(name)
		if match == nil {
			problems = append(problems, fmt.Sprintf("%s: does not match <YYYYMMDDHHMMSS>_<snake_case>.sql", name))
			continue
		}

		version := match[1]
		if prev, ok := seen[version]; ok {
			problems = append(problems, fmt.Sprintf("%s: duplicate version %s (also %s)", name, version, prev))
			continue
		}
		seen[version] = name
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("invalid migrations:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}
