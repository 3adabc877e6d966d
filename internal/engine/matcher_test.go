package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/miradorstack/mirador-slo/internal/models"
)

func testCatalog() []models.ServiceCandidate {
	return []models.ServiceCandidate{
		{ServiceID: 1, Name: "checkout-service", Path: "checkout/api/orders"},
		{ServiceID: 2, Name: "dashboard-stats-service", Path: "dashboard-stats-service/api/stats"},
		{ServiceID: 3, Name: "dashboard-admin", Path: "dashboard-admin/api/users"},
		{ServiceID: 4, Name: "stats-collector", Path: "stats-collector/api/ingest"},
		{ServiceID: 5, Name: "payments", Path: "payments/api/refunds"},
		{ServiceID: 6, Name: "payment-gateway", Path: "payment-gateway/api/charge"},
	}
}

func TestFindMatchesSubstringBoostRanksFirst(t *testing.T) {
	matches := FindMatches("dashboard-stats", testCatalog(), DefaultMatchThreshold)
	if len(matches) < 2 {
		t.Fatalf("expected at least two matches, got %d", len(matches))
	}
	if matches[0].Candidate.ServiceID != 2 {
		t.Fatalf("expected dashboard-stats-service first, got %+v", matches[0])
	}
	if matches[0].Score < 0.7 {
		t.Fatalf("expected score >= 0.7, got %f", matches[0].Score)
	}
	if matches[1].Candidate.ServiceID != 3 {
		t.Fatalf("expected dashboard-admin second, got %+v", matches[1])
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Fatalf("matches not sorted by score: %+v", matches)
		}
	}
}

func TestFindMatchesCaseFoldAndFloor(t *testing.T) {
	matches := FindMatches("  Payment ", testCatalog(), DefaultMatchThreshold)
	if len(matches) < 2 {
		t.Fatalf("expected two payment matches, got %+v", matches)
	}
	if matches[0].Candidate.ServiceID != 5 || matches[1].Candidate.ServiceID != 6 {
		t.Fatalf("unexpected ranking: %+v", matches)
	}
	if math.Abs(matches[1].Score-0.7) > 1e-9 {
		t.Fatalf("expected substring floor of 0.7 for payment-gateway, got %f", matches[1].Score)
	}
}

func TestFindMatchesThreshold(t *testing.T) {
	if matches := FindMatches("zzqq", testCatalog(), DefaultMatchThreshold); len(matches) != 0 {
		t.Fatalf("expected no matches, got %+v", matches)
	}
	if matches := FindMatches("", testCatalog(), 0); len(matches) != 0 {
		t.Fatalf("expected empty query to match nothing, got %+v", matches)
	}
	for _, m := range FindMatches("checkout", testCatalog(), DefaultMatchThreshold) {
		if m.Score < DefaultMatchThreshold {
			t.Fatalf("match below threshold: %+v", m)
		}
	}
}

func TestFindMatchesTiesKeepCatalogOrder(t *testing.T) {
	catalog := []models.ServiceCandidate{
		{ServiceID: 10, Name: "orders", Path: "orders/v1"},
		{ServiceID: 11, Name: "orders", Path: "orders/v2"},
		{ServiceID: 12, Name: "orders", Path: "orders/v3"},
	}
	for run := 0; run < 5; run++ {
		matches := FindMatches("orders", catalog, DefaultMatchThreshold)
		if len(matches) != 3 {
			t.Fatalf("expected 3 matches, got %d", len(matches))
		}
		for i, want := range []int64{10, 11, 12} {
			if matches[i].Candidate.ServiceID != want {
				t.Fatalf("run %d: expected catalog order, got %+v", run, matches)
			}
		}
	}
}

func TestServiceMatcherResolve(t *testing.T) {
	matcher := NewServiceMatcher(testCatalog(), DefaultMatchThreshold, 1)
	if matcher.Size() != 6 {
		t.Fatalf("expected 6 entries, got %d", matcher.Size())
	}
	if got := matcher.Match("dashboard-stats"); len(got) != 1 {
		t.Fatalf("expected result limit of 1, got %d", len(got))
	}

	match, err := matcher.Resolve("checkout")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Candidate.ServiceID != 1 {
		t.Fatalf("expected checkout-service, got %+v", match)
	}

	if _, err := matcher.Resolve("zzqq"); !errors.Is(err, models.ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
}

func TestSequenceRatio(t *testing.T) {
	if got := sequenceRatio([]rune("abcd"), []rune("bcde")); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("expected 0.75, got %f", got)
	}
	if got := sequenceRatio([]rune("bcde"), []rune("abcd")); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("expected symmetric 0.75, got %f", got)
	}
	if got := sequenceRatio([]rune("payments"), []rune("payments")); got != 1 {
		t.Fatalf("expected identical strings to score 1, got %f", got)
	}
	if got := sequenceRatio([]rune("abc"), []rune("xyz")); got != 0 {
		t.Fatalf("expected disjoint strings to score 0, got %f", got)
	}
}
