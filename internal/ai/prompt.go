package ai

import (
	"fmt"
	"strings"
)

// MatchPrompt builds the disambiguation prompt: given a raw name and the
// candidate list, the model must answer with exactly one candidate or
// NO_MATCH. kind is the lowercase entity label ("company", "designation",
// "city", "country", "skill").
func MatchPrompt(kind, input string, candidates []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are matching a raw %s name from a scraped job posting against a list of known %s names.\n\n", kind, kind)
	fmt.Fprintf(&sb, "Raw name: %s\n\n", input)
	sb.WriteString("Known names:\n")
	for _, c := range candidates {
		fmt.Fprintf(&sb, "- %s\n", c)
	}
	sb.WriteString("\nIf the raw name refers to the same ")
	sb.WriteString(kind)
	sb.WriteString(" as one of the known names, reply with that known name exactly as written above.\n")
	sb.WriteString("If none of them is the same ")
	sb.WriteString(kind)
	sb.WriteString(", reply with exactly NO_MATCH.\n")
	sb.WriteString("Reply with only the name or NO_MATCH, no explanation, no punctuation, no quotes.")
	return sb.String()
}

// TitlePrompt builds the title-refinement prompt. designationHint, when
// non-empty, is the already-resolved canonical designation the title should
// align with.
func TitlePrompt(rawTitle, designationHint string) string {
	var sb strings.Builder
	sb.WriteString("Rewrite the following scraped job title as a clean, professional job title.\n")
	sb.WriteString("Remove location suffixes, seniority codes, requisition ids, company names and marketing fluff.\n")
	if designationHint != "" {
		fmt.Fprintf(&sb, "The role is known to be: %s. Keep the title consistent with that role.\n", designationHint)
	}
	sb.WriteString("Reply with only the cleaned title, nothing else.\n\n")
	fmt.Fprintf(&sb, "Title: %s", rawTitle)
	return sb.String()
}

// DescriptionPrompt builds the description-refinement prompt.
func DescriptionPrompt(rawDescription string) string {
	var sb strings.Builder
	sb.WriteString("Clean up the following scraped job description.\n")
	sb.WriteString("Keep all factual content: responsibilities, requirements, qualifications, benefits.\n")
	sb.WriteString("Remove navigation text, cookie banners, apply buttons, legal boilerplate and duplicated fragments.\n")
	sb.WriteString("Use simple HTML formatting with <p>, <ul> and <li> tags. Reply with only the cleaned description.\n\n")
	fmt.Fprintf(&sb, "Description:\n%s", rawDescription)
	return sb.String()
}
