package answer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const leaseText = "The tenant shall indemnify the landlord against all claims. " +
	"Rent payment is due monthly. This lease shall automatically renew on January 15, 2027 " +
	"unless terminated with 60 days notice. Tenant is responsible for all applicable taxes."

func TestAnswerRisk(t *testing.T) {
	resp := Answer("What are the risks?", leaseText, "s3://bucket/users/alice/doc_1_lease.pdf")

	require.NotNil(t, resp)
	assert.Contains(t, resp.Answer, "HIGH RISK")
	assert.Contains(t, resp.Answer, "automatic renewal")
	assert.Equal(t, []string{"s3://bucket/users/alice/doc_1_lease.pdf"}, resp.Sources)
	assert.NotEmpty(t, resp.DocumentText)
}

func TestAnswerObligations(t *testing.T) {
	resp := Answer("What are my obligations?", leaseText, "s3://bucket/doc")

	assert.Contains(t, resp.Answer, "Payment obligations")
	assert.Contains(t, resp.Answer, "tax or fee")
}

func TestAnswerTermination(t *testing.T) {
	resp := Answer("When does this expire?", leaseText, "s3://bucket/doc")

	assert.Contains(t, resp.Answer, "January 15, 2027")
	assert.Contains(t, resp.Answer, "termination clauses")
	assert.Contains(t, resp.Answer, "renew automatically")
}

func TestAnswerGeneral(t *testing.T) {
	resp := Answer("Tell me about this document", leaseText, "s3://bucket/doc")

	assert.Contains(t, resp.Answer, "Document summary")
	assert.Contains(t, resp.Answer, "indemnification")
}

func TestAnswerEmptyText(t *testing.T) {
	resp := Answer("What are the risks?", "", "s3://bucket/doc")

	assert.Contains(t, resp.Answer, "No significant risk indicators")
	assert.Empty(t, resp.DocumentText)
}

func TestDocumentTextTruncated(t *testing.T) {
	long := strings.Repeat("clause ", 200)
	resp := Answer("anything", long, "s3://bucket/doc")

	assert.LessOrEqual(t, len(resp.DocumentText), 503)
	assert.True(t, strings.HasSuffix(resp.DocumentText, "..."))
}

func TestDateDetection(t *testing.T) {
	texts := []string{
		"expires 12/31/2026",
		"effective 2026-01-15",
		"signed March 3, 2025",
	}
	for _, text := range texts {
		facts := analyze(text)
		assert.Len(t, facts.dates, 1, "text: %s", text)
	}
}
