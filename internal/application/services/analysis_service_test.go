package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examdesk/core/internal/infrastructure/logger"
)

const analysisFixture = `{
  "questions": [
    {
      "id": "q001",
      "question": "Which protocol maps IP addresses to MAC addresses?",
      "options": ["ARP", "DNS", "DHCP", "ICMP"],
      "correctAnswer": ["ARP"],
      "explanation": "ARP resolves a known IPv4 address to the MAC address of the target host on the local segment.",
      "topic": "Network Fundamentals",
      "difficulty": "easy"
    },
    {
      "id": "q002",
      "question": "Which protocol maps IP addresses to  MAC addresses?",
      "options": ["ARP", "DNS"],
      "correctAnswer": ["ARP"],
      "explanation": "Short.",
      "topic": "Network Fundamentals",
      "difficulty": "easy"
    },
    {
      "id": "q001",
      "question": "What is the default administrative distance of OSPF?",
      "options": ["90", "110", "120"],
      "correctAnswer": ["110"],
      "explanation": "OSPF routes carry an administrative distance of 110, between EIGRP at 90 and RIP at 120.",
      "topic": "IP Connectivity",
      "difficulty": "medium"
    },
    {
      "id": "q004",
      "question": "Which command enables port security?",
      "options": ["switchport port-security"],
      "correctAnswer": [],
      "topic": "Network Access"
    }
  ],
  "version": "1.0.0",
  "lastUpdated": "2024-06-01"
}`

func TestAnalyzeCountsAndDuplicates(t *testing.T) {
	store, resolver := newTestStorage(t)
	seedDocument(t, resolver, analysisFixture)

	svc := NewAnalysisService(store, logger.NewNop())
	report, err := svc.Analyze(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalQuestions)
	assert.Equal(t, "1.0.0", report.Version)
	assert.Equal(t, "2024-06-01", report.LastUpdated)

	assert.Equal(t, 2, report.Topics["Network Fundamentals"])
	assert.Equal(t, 1, report.Topics["IP Connectivity"])
	assert.Equal(t, 1, report.Topics["Network Access"])

	assert.Equal(t, 2, report.Difficulties["easy"])
	assert.Equal(t, 1, report.Difficulties["medium"])
	assert.Equal(t, 1, report.Difficulties["UNKNOWN"])

	assert.Equal(t, []string{"q001"}, report.DuplicateIDs)

	// q002 repeats q001's text modulo whitespace and casing.
	require.Len(t, report.DuplicateTexts, 1)
	assert.Equal(t, "q001", report.DuplicateTexts[0].ExistingID)
	assert.Equal(t, "q002", report.DuplicateTexts[0].NewID)
}

func TestAnalyzeReviewWarnings(t *testing.T) {
	store, resolver := newTestStorage(t)
	seedDocument(t, resolver, analysisFixture)

	svc := NewAnalysisService(store, logger.NewNop())
	report, err := svc.Analyze(context.Background())
	require.NoError(t, err)

	warningsByID := make(map[string][]string)
	for _, finding := range report.Reviews {
		warningsByID[finding.ID] = finding.Warnings
	}

	assert.Contains(t, warningsByID["q002"], "explanation too short")
	assert.Contains(t, warningsByID["q004"], "fewer than two options")
	assert.Contains(t, warningsByID["q004"], "no correct answer set")
	assert.Contains(t, warningsByID["q004"], "missing explanation")
	assert.NotContains(t, warningsByID, "q001")
}

func TestAnalyzeToleratesUndecodableRecords(t *testing.T) {
	store, resolver := newTestStorage(t)
	seedDocument(t, resolver, `{
  "questions": [
    {"id": "q001", "question": "ok?", "options": ["a", "b"], "correctAnswer": ["a"], "explanation": "An explanation that is certainly long enough to pass the review threshold."},
    {"id": "q002", "options": {"not": "a list"}}
  ],
  "version": "1.0.0",
  "lastUpdated": ""
}`)

	svc := NewAnalysisService(store, logger.NewNop())
	report, err := svc.Analyze(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalQuestions)
	assert.Equal(t, 1, report.Undecodable)
}

func TestAnalyzeRejectsNonDocument(t *testing.T) {
	store, resolver := newTestStorage(t)
	seedDocument(t, resolver, `[1, 2, 3]`)

	svc := NewAnalysisService(store, logger.NewNop())
	_, err := svc.Analyze(context.Background())
	require.Error(t, err)
}
