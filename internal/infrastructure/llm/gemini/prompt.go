package gemini

import (
	"fmt"
	"strings"

	"github.com/risknavigator/document-classifier/internal/core/domain"
)

var categoryDescriptions = map[domain.Category]string{
	domain.CategoryLossRun:           "Documents containing loss history, claims data, or loss statistics",
	domain.CategoryAcordForm:         "Standard insurance forms (ACORD 25, ACORD 28, etc.)",
	domain.CategorySupplementalForms: "Additional forms, endorsements, or riders",
	domain.CategoryModSheet:          "Experience modification worksheets or rating documents",
}

func buildClassificationPrompt(filename string) string {
	var b strings.Builder
	b.WriteString("You are a document classification expert for insurance and risk management documents.\n\n")
	b.WriteString("Analyze the attached document and classify it into exactly one of these categories:\n\n")
	for i, category := range domain.Categories() {
		fmt.Fprintf(&b, "%d. **%s** - %s\n", i+1, category.DisplayName(), categoryDescriptions[category])
	}
	fmt.Fprintf(&b, "\nFilename: %s\n\n", filename)
	b.WriteString("Respond with only a JSON object in this exact format:\n")
	b.WriteString("{\"classification\": \"ONE_OF_THE_CATEGORY_NAMES\"}\n")
	b.WriteString("Do not include any other text, only the JSON object.\n")
	return b.String()
}
