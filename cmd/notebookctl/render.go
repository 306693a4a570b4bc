package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	chunkStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func renderChunk(n, page int, text string) string {
	header := headerStyle.Render(fmt.Sprintf("chunk %d", n)) + " " + mutedStyle.Render(fmt.Sprintf("page %d, %d chars", page, len([]rune(text))))
	return header + "\n" + chunkStyle.Render(strings.TrimSpace(text))
}

func renderAnswer(answer *domain.Answer) string {
	var b strings.Builder
	b.WriteString(answer.Text)
	b.WriteString("\n")
	keys := citationKeys(answer.Citations)
	if len(keys) > 0 {
		b.WriteString("\n" + headerStyle.Render("Sources") + "\n")
	}
	for _, key := range keys {
		c := answer.Citations[key]
		b.WriteString(fmt.Sprintf("[%s] %s, page %d\n", key, c.Filename, c.PageNumber))
		if c.ContentPreview != "" {
			b.WriteString(mutedStyle.Render("    "+c.ContentPreview) + "\n")
		}
	}
	if len(answer.Unresolved) > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("unresolved citations: %v", answer.Unresolved)) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// citationKeys orders citation markers numerically.
func citationKeys(citations map[string]domain.CitationDetail) []string {
	keys := make([]string, 0, len(citations))
	for k := range citations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	return keys
}
