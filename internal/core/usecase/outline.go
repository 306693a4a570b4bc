package usecase

import (
	"fmt"
	"strings"
)

const (
	outlineRootHeader = "# root"
	maxOutlineDepth   = 3
)

// ExtractOutline keeps only markdown header lines, clamps their depth so no
// header skips a level, and demotes everything one level so the result can
// sit under the synthetic root.
func ExtractOutline(markdown string) []string {
	out := make([]string, 0)
	prev := 0
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") {
			continue
		}
		level := len(line) - len(strings.TrimLeft(line, "#"))
		title := strings.TrimSpace(line[level:])
		if title == "" {
			continue
		}
		level = min(level, prev+1, maxOutlineDepth)
		prev = level
		out = append(out, strings.Repeat("#", level+1)+" "+title)
	}
	return out
}

func clusterPlaceholder(index int) string {
	return fmt.Sprintf("## Cluster %d (outline unavailable)", index+1)
}

// assembleOutline joins per-cluster sections under the root header.
func assembleOutline(sections [][]string) string {
	var b strings.Builder
	b.WriteString(outlineRootHeader)
	for _, section := range sections {
		for _, line := range section {
			b.WriteByte('\n')
			b.WriteString(line)
		}
	}
	return b.String()
}
