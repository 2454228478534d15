// CLAUDE:SUMMARY Deterministic prompt construction for the cited-answer synthesis request.
package llm

import (
	"fmt"
	"strings"

	"github.com/JohanWes/deepresearch/search"
)

const promptIntro = `You are an AI research assistant. Your primary task is to answer the user's query based mainly on the provided text content extracted from the sources.`

const promptInstructions = `
**Instructions:**
1.  Carefully read the **User Query** and the **Extracted Text Content**.
2.  Formulate a **detailed and comprehensive** answer to the **User Query**, using *only* information present in the **Extracted Text Content**.
3.  **Structure, Length, and Tone:** Write the answer in a formal, objective, and academic tone suitable for a research paper. Structure the answer into **3 to 4 distinct paragraphs**. The total length of the main answer (these 3-4 paragraphs, excluding the TL;DR and Sources list) **MUST be between 500 and 700 words**. Use HTML '<p>' tags to separate the paragraphs clearly. Do **NOT** refer to the process of using the provided text (e.g., avoid phrases like "Based on the provided text," "The sources indicate," etc.). Present the information directly as findings.
4.  **Citations:** Cite the information used in your answer by referencing the sources. Incorporate citations *within* the answer text where appropriate using HTML superscript tags containing HTML anchor tags. The anchor tag's 'href' attribute must point to a corresponding source ID in the final list (e.g., '#source-1', '#source-2'). The visible text of the anchor tag must be the superscript number (e.g., 1, 2).
5.  **Source List:** After the answer, include an HTML ordered list ('<ol>') titled "**Sources:**". Each list item ('<li>') MUST have an 'id' attribute matching the anchor used in the superscript links (e.g., id="source-1", id="source-2"). Inside each list item, provide **only the source title** as the visible text of the HTML anchor tag ('<a>') linking to the source URL, with the 'target="_blank"' attribute. Do **NOT** include the prefix "Title:" before the source title.
6.  **TL;DR Summary:** After the main answer (the 3 paragraphs) and *before* the "**Sources:**" list, add a concise 1-2 sentence summary of the main answer, prefixed with "**To summarize:** ".
7.  **Formatting & Constraints:** Ensure the final output (answer, TL;DR, and source list) is well-structured, valid HTML, and easy to read. Do NOT use Markdown formatting for links. Do NOT include information not found in the provided text content.
`

const promptOutro = `
**Generated Answer, TLDR, and Sources (HTML format as requested):**
`

// BuildPrompt assembles the synthesis prompt from the user query, the
// combined extracted text, and the numbered source list. Same inputs,
// same prompt.
func BuildPrompt(query, text string, sources []search.Hit) string {
	var b strings.Builder
	b.WriteString(promptIntro)

	fmt.Fprintf(&b, "\n**User Query:**\n---\n%s\n---\n", query)
	b.WriteString(promptInstructions)
	fmt.Fprintf(&b, "\n**Extracted Text Content:**\n---\n%s\n---\n", text)
	fmt.Fprintf(&b, "\n**Sources Used (for context and citation numbering, format output as per instruction #5 and #6):** \n---\n%s\n---\n", sourceList(sources))
	b.WriteString(promptOutro)
	return b.String()
}

// sourceList renders the 1-based numbered list the citation anchors refer
// back to.
func sourceList(sources []search.Hit) string {
	if len(sources) == 0 {
		return "No specific sources provided."
	}
	lines := make([]string, len(sources))
	for i, src := range sources {
		lines[i] = fmt.Sprintf("%d. Title: %s\n   URL: %s", i+1, src.Title, src.Link)
	}
	return strings.Join(lines, "\n")
}
