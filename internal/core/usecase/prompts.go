package usecase

import (
	"fmt"
	"strings"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

const noRelevantInfoAnswer = "No relevant information was found in the selected documents."

const answerSystemPrompt = `You are a document analyst answering questions strictly from the numbered reference documents provided.

Rules:
- If the question is a greeting or has no searchable meaning, reply only: "Please ask a more specific question." and add nothing else.
- Otherwise answer in detail using only the reference documents.
- Put a square-bracket citation [n] right after every fact taken from document n. Keep the document numbers exactly as given.
- End with a section that starts with the line REFERENCES: and lists every document you cited, one per line, in the form:
  [n] File: "<file name>", Page: <page>, Content: "<short excerpt>"
- List only documents you actually cited.`

const summarySystemPrompt = `You summarize documents. Write a short summary that covers the main ideas and the most important facts of the content provided. Do not add information that is not in the content.`

const outlineSystemPrompt = `You reformat study material into a markdown outline.
Use only header lines starting with #, ## or ### followed by a short title.
Headers must not skip levels: a ### must come after a ## and a ## must come after a #.
Do not write paragraphs.`

const recallQuestionSystemPrompt = `You are a study assistant practising active recall. Ask exactly ONE open question that makes the learner explain, compare or give an example, not just recall a single fact. Reply with the question only.`

const recallFeedbackSystemPrompt = `You objectively evaluate a learner's answer against the reference context. Judge accuracy and completeness, point out missing important ideas, and give short constructive feedback.`

const recallKeyPointsSystemPrompt = `List the most important ideas or concepts of the reference context as short bullet points, one per line, each line starting with "-".`

func answerMessages(question, contextText string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: answerSystemPrompt},
		{Role: domain.RoleUser, Content: fmt.Sprintf("QUESTION: %s\n\nREFERENCE DOCUMENTS:\n%s\n\nANSWER:", question, contextText)},
	}
}

func summaryMessages(content string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: summarySystemPrompt},
		{Role: domain.RoleUser, Content: "DOCUMENT CONTENT:\n---\n" + content + "\n---\n\nSUMMARY:"},
	}
}

func outlineMessages(mergedText string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: outlineSystemPrompt},
		{Role: domain.RoleUser, Content: mergedText},
	}
}

func recallQuestionMessages(topic, material string, asked []string) []domain.ChatMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %q\n\nReference context:\n---\n%s\n---\n", topic, material)
	if len(asked) > 0 {
		b.WriteString("\nDo not repeat these earlier questions:\n")
		for _, q := range asked {
			b.WriteString("- ")
			b.WriteString(q)
			b.WriteByte('\n')
		}
	}
	b.WriteString("\nRecall question:")
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: recallQuestionSystemPrompt},
		{Role: domain.RoleUser, Content: b.String()},
	}
}

func recallFeedbackMessages(question, userAnswer, material string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: recallFeedbackSystemPrompt},
		{Role: domain.RoleUser, Content: fmt.Sprintf(
			"Question: %q\nLearner answer: %q\n\nReference context:\n---\n%s\n---\n\nEvaluation:",
			question, userAnswer, material,
		)},
	}
}

func recallKeyPointsMessages(topic, material string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: recallKeyPointsSystemPrompt},
		{Role: domain.RoleUser, Content: fmt.Sprintf("Topic: %q\n\nReference context:\n---\n%s\n---\n\nKey points:", topic, material)},
	}
}
