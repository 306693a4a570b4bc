// Package citation turns an LLM answer with sparse, self-assigned
// citation numbers into a densely numbered answer backed by the
// retrieved sources that were actually shown to the model.
package citation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

const (
	ReferencesMarker    = "REFERENCES:"
	DefaultPreviewChars = 200
)

var (
	referenceLinePattern  = regexp.MustCompile(`^\s*\[(\d+)\]\s*(.*)$`)
	inlineCitationPattern = regexp.MustCompile(`\[(\d+)\]`)
)

type Result struct {
	Answer    string
	Citations map[string]domain.CitationDetail
	// Unresolved lists body citation numbers that were left untouched
	// because no declared and resolvable reference backed them.
	Unresolved []int
	// MissingReferences is set when the response had no REFERENCES: section.
	MissingReferences bool
}

type Reconciler struct {
	previewChars int
}

func NewReconciler(previewChars int) *Reconciler {
	if previewChars <= 0 {
		previewChars = DefaultPreviewChars
	}
	return &Reconciler{previewChars: previewChars}
}

func (r *Reconciler) Reconcile(response string, sources domain.SourceMapping) Result {
	markerAt := lastIndexFold(response, ReferencesMarker)
	if markerAt < 0 {
		answer := strings.TrimSpace(response)
		return Result{
			Answer:            answer,
			Citations:         map[string]domain.CitationDetail{},
			Unresolved:        collectNumbers(answer),
			MissingReferences: true,
		}
	}

	answerRaw := strings.TrimSpace(response[:markerAt])
	referencesSection := strings.TrimSpace(response[markerAt+len(ReferencesMarker):])

	declared := parseReferences(referencesSection)
	valid := make([]int, 0, len(declared))
	for _, number := range declared {
		if _, ok := sources[number]; ok {
			valid = append(valid, number)
		}
	}
	sort.Ints(valid)

	renumber := make(map[int]int, len(valid))
	citations := make(map[string]domain.CitationDetail, len(valid))
	for i, oldNumber := range valid {
		newNumber := i + 1
		renumber[oldNumber] = newNumber
		citations[strconv.Itoa(newNumber)] = r.detail(sources[oldNumber])
	}

	unresolvedSet := make(map[int]struct{})
	answer := inlineCitationPattern.ReplaceAllStringFunc(answerRaw, func(match string) string {
		number, err := strconv.Atoi(match[1 : len(match)-1])
		if err != nil {
			return match
		}
		if newNumber, ok := renumber[number]; ok {
			return "[" + strconv.Itoa(newNumber) + "]"
		}
		unresolvedSet[number] = struct{}{}
		return match
	})

	return Result{
		Answer:     answer,
		Citations:  citations,
		Unresolved: sortedKeys(unresolvedSet),
	}
}

// parseReferences returns declared citation numbers in first-seen order.
func parseReferences(section string) []int {
	seen := make(map[int]struct{})
	out := make([]int, 0)
	for _, line := range strings.Split(section, "\n") {
		match := referenceLinePattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if match == nil {
			continue
		}
		number, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if _, dup := seen[number]; dup {
			continue
		}
		seen[number] = struct{}{}
		out = append(out, number)
	}
	return out
}

func (r *Reconciler) detail(doc domain.RetrievedDocument) domain.CitationDetail {
	return domain.CitationDetail{
		DocumentID:     doc.DocumentID,
		ChunkID:        doc.ChunkID,
		PageNumber:     doc.PageNumber,
		Filename:       doc.Filename,
		ContentPreview: Preview(doc.Content, r.previewChars),
	}
}

// Preview cuts text to limit runes and marks the cut with "...".
func Preview(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

// lastIndexFold is strings.LastIndex with ASCII case folding on the needle.
// Byte offsets stay valid for the original haystack.
func lastIndexFold(haystack, needle string) int {
	for i := len(haystack) - len(needle); i >= 0; i-- {
		if strings.EqualFold(haystack[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func collectNumbers(text string) []int {
	set := make(map[int]struct{})
	for _, match := range inlineCitationPattern.FindAllStringSubmatch(text, -1) {
		if number, err := strconv.Atoi(match[1]); err == nil {
			set[number] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[int]struct{}) []int {
	if len(set) == 0 {
		return nil
	}
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
