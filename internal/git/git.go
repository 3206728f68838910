package git

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// ChangedFile is one script touched by a diff. ChangedLines are line
// numbers in the new version; a deleted file has none.
type ChangedFile struct {
	Path         string
	ChangedLines []int
	Deleted      bool
}

// Regex for chunk header: @@ -oldStart,oldLen +newStart,newLen @@
var chunkHeader = regexp.MustCompile(`^@@ \-\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// GetChangedFiles runs `git diff -U0 baseRef` inside dir and returns the
// changed GDScript files with their changed line numbers. Paths are relative
// to dir.
func GetChangedFiles(dir, baseRef string) ([]ChangedFile, error) {
	args := []string{"diff", "-U0", "--relative", baseRef, "--", "*.gd"}
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}
	cmd := exec.Command("git", args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}
	return parseDiff(output)
}

func parseDiff(output []byte) ([]ChangedFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	var changes []ChangedFile
	var current *ChangedFile
	flush := func() {
		if current != nil && strings.HasSuffix(current.Path, ".gd") {
			changes = append(changes, *current)
		}
		current = nil
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "diff --git") {
			flush()
			// a/path/to/file b/path/to/file; the b/ side is the new version.
			parts := strings.Fields(line)
			if len(parts) >= 4 {
				current = &ChangedFile{Path: strings.TrimPrefix(parts[3], "b/"), ChangedLines: []int{}}
			}
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "deleted file mode"), line == "+++ /dev/null":
			current.Deleted = true
		case strings.HasPrefix(line, "@@"):
			m := chunkHeader.FindStringSubmatch(line)
			if len(m) < 2 {
				continue
			}
			start, _ := strconv.Atoi(m[1])
			count := 1 // omitted length means one line
			if len(m) > 2 && m[2] != "" {
				count, _ = strconv.Atoi(m[2])
			}
			// A pure deletion (count 0) still marks the line it happened at.
			if count == 0 {
				count = 1
			}
			for i := 0; i < count; i++ {
				current.ChangedLines = append(current.ChangedLines, start+i)
			}
		}
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read diff: %w", err)
	}
	return changes, nil
}
