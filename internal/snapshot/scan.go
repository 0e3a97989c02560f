package snapshot

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"

	superr "github.com/nbbaier/supertag/internal/errors"
)

// FilenamePattern matches export filenames: `*@YYYY-MM-DD.json`.
var FilenamePattern = regexp.MustCompile(`@\d{4}-\d{2}-\d{2}\.json$`)

// Matches reports whether name looks like a snapshot export file.
func Matches(name string) bool {
	return FilenamePattern.MatchString(name)
}

// Latest returns the lexicographically-greatest matching filename in dir,
// which for the `@YYYY-MM-DD` suffix is also the most recent export date.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", superr.Wrap(superr.DatabaseNotFound, err, "reading export directory "+dir)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if Matches(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", superr.Newf(superr.DatabaseNotFound, "no snapshot files matching %s in %s", FilenamePattern.String(), dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}
