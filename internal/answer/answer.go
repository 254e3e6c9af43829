// Package answer generates heuristic answers about an extracted
// document. It is a pure function over the text: no state, no external
// calls. Real language understanding is explicitly out of scope; the
// heuristics are keyword matches the way the product has always done
// them.
package answer

import (
	"fmt"
	"regexp"
	"strings"
)

// Response is the answer payload for a document query.
type Response struct {
	Answer       string   `json:"answer"`
	Sources      []string `json:"sources"`
	DocumentText string   `json:"documentText"`
}

var datePattern = regexp.MustCompile(
	`(?i)\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}[/-]\d{1,2}[/-]\d{1,2}|(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s+\d{4})\b`,
)

type documentFacts struct {
	hasLiability   bool
	hasTaxes       bool
	hasRenewal     bool
	hasTermination bool
	hasPayment     bool
	dates          []string
}

func analyze(text string) documentFacts {
	lower := strings.ToLower(text)
	contains := func(terms ...string) bool {
		for _, t := range terms {
			if strings.Contains(lower, t) {
				return true
			}
		}
		return false
	}
	return documentFacts{
		hasLiability:   contains("indemnif", "liability"),
		hasTaxes:       contains("tax", "fee"),
		hasRenewal:     contains("renew", "extend"),
		hasTermination: contains("terminat", "end"),
		hasPayment:     contains("payment", "rent"),
		dates:          datePattern.FindAllString(text, -1),
	}
}

// Answer builds a response for a free-form query over extracted text.
// blobPath is reported back as the answer's source.
func Answer(query, text, blobPath string) *Response {
	facts := analyze(text)
	queryLower := strings.ToLower(query)

	var body string
	switch {
	case strings.Contains(queryLower, "risk"):
		body = riskAnswer(facts, text)
	case strings.Contains(queryLower, "obligation") || strings.Contains(queryLower, "responsibilit"):
		body = obligationAnswer(facts, text)
	case strings.Contains(queryLower, "expire") || strings.Contains(queryLower, "terminat") || strings.Contains(queryLower, "end"):
		body = terminationAnswer(facts, text)
	default:
		body = generalAnswer(facts, text)
	}

	return &Response{
		Answer:       body,
		Sources:      []string{blobPath},
		DocumentText: snippet(text, 500),
	}
}

func riskAnswer(facts documentFacts, text string) string {
	var risks []string
	if facts.hasLiability {
		risks = append(risks, "HIGH RISK: indemnification/liability clauses shift damages onto you")
	}
	if facts.hasTaxes {
		risks = append(risks, "MEDIUM RISK: tax or fee obligations beyond base payments")
	}
	if facts.hasRenewal {
		risks = append(risks, "MEDIUM RISK: automatic renewal without explicit consent")
	}
	if len(risks) == 0 {
		risks = append(risks, "No significant risk indicators detected in the extracted text")
	}
	return fmt.Sprintf("Key risks identified:\n- %s\n\nDocument excerpt: %q",
		strings.Join(risks, "\n- "), snippet(text, 150))
}

func obligationAnswer(facts documentFacts, text string) string {
	var obligations []string
	if facts.hasPayment {
		obligations = append(obligations, "Payment obligations as specified in the contract")
	}
	if facts.hasLiability {
		obligations = append(obligations, "Liability for certain damages")
	}
	if facts.hasTaxes {
		obligations = append(obligations, "Additional tax or fee responsibilities")
	}
	if len(obligations) == 0 {
		obligations = append(obligations, "No explicit obligations detected in the extracted text")
	}
	return fmt.Sprintf("Your key obligations:\n- %s\n\nDocument excerpt: %q",
		strings.Join(obligations, "\n- "), snippet(text, 150))
}

func terminationAnswer(facts documentFacts, text string) string {
	var b strings.Builder
	if len(facts.dates) > 0 {
		b.WriteString("Key dates found: " + strings.Join(facts.dates, ", ") + "\n")
	}
	if facts.hasTermination {
		b.WriteString("The contract includes termination clauses.\n")
	} else {
		b.WriteString("No specific termination clauses found.\n")
	}
	if facts.hasRenewal {
		b.WriteString("Warning: the contract may renew automatically.\n")
	}
	b.WriteString(fmt.Sprintf("\nDocument excerpt: %q", snippet(text, 150)))
	return b.String()
}

func generalAnswer(facts documentFacts, text string) string {
	var findings []string
	if facts.hasLiability {
		findings = append(findings, "contains indemnification/liability clauses")
	}
	if facts.hasTaxes {
		findings = append(findings, "includes tax or fee obligations")
	}
	if facts.hasRenewal {
		findings = append(findings, "has automatic renewal provisions")
	}
	if len(findings) == 0 {
		findings = append(findings, "no notable clauses detected")
	}
	return fmt.Sprintf("Document summary: %s.\n\nDocument excerpt: %q\n\nAsk about risks, obligations, or termination for details.",
		strings.Join(findings, "; "), snippet(text, 200))
}

func snippet(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
