// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package processor

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
)

// topicVocabulary maps topic labels to trigger keywords; order determines
// the order of the key_topics metadata field.
var topicVocabulary = []struct {
	topic    string
	keywords []string
}{
	{"customer_service", []string{"customer", "service", "guest", "satisfaction"}},
	{"billing", []string{"bill", "charge", "payment", "refund", "invoice"}},
	{"reservations", []string{"reservation", "booking", "check-in", "check-out"}},
	{"complaints", []string{"complaint", "issue", "problem", "dissatisfied"}},
	{"amenities", []string{"pool", "gym", "wifi", "breakfast", "parking"}},
	{"room_service", []string{"room service", "housekeeping", "maintenance"}},
	{"policies", []string{"policy", "rule", "regulation", "guideline"}},
	{"emergency", []string{"emergency", "safety", "security", "evacuation"}},
}

var procedureIndicators = []string{
	"step", "procedure", "process", "follow", "instructions",
	"first", "then", "next", "finally", "1.", "2.", "3.",
}

// analyzeContent derives content statistics and signals that become
// document metadata.
func analyzeContent(content string) map[string]any {
	words := strings.Fields(content)
	sentences := strings.Split(content, ".")

	paragraphCount := 0
	for _, paragraph := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(paragraph) != "" {
			paragraphCount++
		}
	}

	return map[string]any{
		"word_count":       len(words),
		"sentence_count":   len(sentences),
		"paragraph_count":  paragraphCount,
		"key_topics":       extractKeyTopics(content),
		"has_contact_info": hasContactInfo(content),
		"has_procedures":   hasProcedures(content),
		"language":         "english",
	}
}

// extractKeyTopics returns every vocabulary topic triggered by the content,
// in vocabulary order.
func extractKeyTopics(content string) []string {
	contentLower := strings.ToLower(content)

	var topics []string
	for _, entry := range topicVocabulary {
		if containsAny(contentLower, entry.keywords) {
			topics = append(topics, entry.topic)
		}
	}
	if topics == nil {
		topics = []string{}
	}
	return topics
}

func hasContactInfo(content string) bool {
	return emailPattern.MatchString(content) || phonePattern.MatchString(content)
}

func hasProcedures(content string) bool {
	return containsAny(strings.ToLower(content), procedureIndicators)
}
