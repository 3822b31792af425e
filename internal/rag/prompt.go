package rag

import "strings"

// promptInstructions grounds the downstream model in the retrieved context.
const promptInstructions = "Answer using only the context above. " +
	"If the context does not contain enough information to answer, say so plainly. " +
	"Do not invent facts that are not supported by the context."

// promptNoDocuments is used when retrieval produced nothing; it asks the
// model to invite an upload instead of answering from an empty context block.
const promptNoDocuments = "The student has not uploaded any study materials yet, " +
	"or none of their materials are relevant to this question. " +
	"Let them know you can give better, source-grounded answers once they upload " +
	"course documents, then answer the question from general knowledge if you can.\n\nQuestion: "

// BuildPrompt assembles the generation prompt for a question and its
// retrieved context texts. Contexts are joined with blank lines under an
// explicit heading; an empty context list selects the distinct
// "no documents yet" template.
func BuildPrompt(question string, contexts []string) string {
	if len(contexts) == 0 {
		return promptNoDocuments + question
	}

	var b strings.Builder
	b.WriteString("Context from uploaded documents:\n\n")
	b.WriteString(strings.Join(contexts, "\n\n"))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\n")
	b.WriteString(promptInstructions)
	return b.String()
}
