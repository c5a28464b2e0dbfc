package pipeline

import (
	"strings"

	"pagegist/internal/extract"
)

const (
	extractionInstructions = `Analyze this text and extract:
1. MAIN TOPIC (one sentence)
2. KEY FACTS (3-5 bullet points)
3. KEY ENTITIES (people, companies, tech mentioned)
4. CONTENT TYPE (news/tutorial/opinion/research/docs)
5. SENTIMENT (positive/negative/neutral)

Be precise. Output in structured format.`

	draftingInstructions = `You're a world-class summarizer. Using this analysis AND the source text, create an excellent summary.`

	draftingTemplate = `FORMAT YOUR RESPONSE EXACTLY LIKE THIS:

## 📌 TL;DR
One clear sentence summarizing everything.

## 🔑 Key Points
• First important point
• Second important point
• Third important point
• Fourth important point (if needed)
• Fifth important point (if needed)

## 💡 Key Insight
One unique takeaway or insight the reader should remember.

Rules: Be concise, clear, and insightful. Use plain language.`

	polishingInstructions = `Your tasks:
1. Fix any formatting or grammar issues
2. Make bullet points punchy and scannable
3. Add this section at the end:

## 🤔 Think About
• One thought-provoking question about this content
• Another angle to consider

## 📊 Stats
• Reading time: estimate based on original content length
• Complexity: Easy / Medium / Hard

Output the COMPLETE polished summary. Keep markdown formatting.`
)

func extractionPrompt(source string) string {
	b := strings.Builder{}
	b.WriteString(extractionInstructions)
	b.WriteString("\n\nText:\n")
	b.WriteString(extract.Truncate(source, StageExtraction.InputBudget()))

	return b.String()
}

func draftingPrompt(analysis, source string) string {
	b := strings.Builder{}
	b.WriteString(draftingInstructions)
	b.WriteString("\n\nANALYSIS:\n")
	b.WriteString(analysis)
	b.WriteString("\n\nSOURCE TEXT:\n")
	b.WriteString(extract.Truncate(source, StageDrafting.InputBudget()))
	b.WriteString("\n\n")
	b.WriteString(draftingTemplate)

	return b.String()
}

func polishingPrompt(draft string) string {
	b := strings.Builder{}
	b.WriteString("You are an expert editor. Polish this summary:\n\n")
	b.WriteString(draft)
	b.WriteString("\n\n")
	b.WriteString(polishingInstructions)

	return b.String()
}
