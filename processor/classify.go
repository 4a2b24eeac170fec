package processor

import "strings"

type classifyRule struct {
	keywords []string
	label    string
}

// Filename patterns outrank content clues, which outrank extension defaults.
var filenameRules = []classifyRule{
	{[]string{"policy", "policies", "procedure"}, "policy_document"},
	{[]string{"training", "guide", "manual"}, "training_material"},
	{[]string{"script", "dialogue", "response"}, "service_script"},
	{[]string{"checklist", "steps", "process"}, "procedural_guide"},
	{[]string{"faq", "questions", "answers"}, "faq_document"},
}

var contentRules = []classifyRule{
	{[]string{"greeting", "welcome", "hello"}, "greeting_guide"},
	{[]string{"complaint", "issue", "problem", "recovery"}, "service_recovery"},
	{[]string{"billing", "payment", "charge", "refund"}, "billing_guidance"},
}

var extensionTypes = map[string]string{
	".pdf":  "pdf_document",
	".doc":  "word_document",
	".docx": "word_document",
	".xlsx": "spreadsheet",
	".xls":  "spreadsheet",
	".txt":  "text_document",
	".md":   "text_document",
}

// classifyDocument assigns a document type label from the filename, then the
// content, then the file extension.
func classifyDocument(filename, content, ext string) string {
	filenameLower := strings.ToLower(filename)
	for _, rule := range filenameRules {
		if containsAny(filenameLower, rule.keywords) {
			return rule.label
		}
	}

	contentLower := strings.ToLower(content)
	for _, rule := range contentRules {
		if containsAny(contentLower, rule.keywords) {
			return rule.label
		}
	}

	if label, ok := extensionTypes[ext]; ok {
		return label
	}
	return "general_document"
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
