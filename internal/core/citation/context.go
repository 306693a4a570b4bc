package citation

import (
	"fmt"
	"strings"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

const DefaultContextChars = 400

// BuildContext numbers retrieved documents by rank and renders the
// [DOCUMENT n] blocks placed in the answer prompt.
func BuildContext(docs []domain.RetrievedDocument, contentChars int) (string, domain.SourceMapping) {
	if contentChars <= 0 {
		contentChars = DefaultContextChars
	}

	sources := make(domain.SourceMapping, len(docs))
	blocks := make([]string, 0, len(docs))
	for i, doc := range docs {
		rank := i + 1
		doc.Rank = rank
		sources[rank] = doc

		content := []rune(doc.Content)
		if len(content) > contentChars {
			content = content[:contentChars]
		}
		blocks = append(blocks, fmt.Sprintf(
			"[DOCUMENT %d]\nFile: %s\nPage: %d\nContent: %s...",
			rank, doc.Filename, doc.PageNumber, string(content),
		))
	}
	return strings.Join(blocks, "\n\n"), sources
}
