package docstore

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetOrCreateIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	url := "https://example.com/policy.pdf"

	first, err := s.GetOrCreate(ctx, url, "https_example_com_policy_pdf")
	if err != nil {
		t.Fatalf("GetOrCreate() error: %v", err)
	}
	if first.ID == "" || first.Namespace != "https_example_com_policy_pdf" {
		t.Fatalf("unexpected record: %+v", first)
	}

	// A second call with a different namespace must not overwrite.
	second, err := s.GetOrCreate(ctx, url, "some_other_namespace")
	if err != nil {
		t.Fatalf("second GetOrCreate() error: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same record, got ids %s and %s", first.ID, second.ID)
	}
	if second.Namespace != first.Namespace {
		t.Errorf("namespace overwritten: %s -> %s", first.Namespace, second.Namespace)
	}
}

func TestGetByURLMissing(t *testing.T) {
	s := openTestStore(t)
	doc, err := s.GetByURL(context.Background(), "https://example.com/unknown.pdf")
	if err != nil {
		t.Fatalf("GetByURL() error: %v", err)
	}
	if doc != nil {
		t.Errorf("expected nil for unknown url, got %+v", doc)
	}
}

func TestAppendQuestionsDeduplicates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	url := "https://example.com/terms.pdf"
	if _, err := s.GetOrCreate(ctx, url, "ns"); err != nil {
		t.Fatalf("GetOrCreate() error: %v", err)
	}

	// Same question asked three ways; only the first form is kept.
	questions := []string{
		"What is the grace period?",
		"what is the grace period?",
		"  What is the grace period?  ",
		"What is the waiting period?",
	}
	if err := s.AppendQuestions(ctx, url, questions); err != nil {
		t.Fatalf("AppendQuestions() error: %v", err)
	}

	doc, err := s.GetByURL(ctx, url)
	if err != nil {
		t.Fatalf("GetByURL() error: %v", err)
	}
	if len(doc.Questions) != 2 {
		t.Errorf("expected 2 distinct questions, got %d: %v", len(doc.Questions), doc.Questions)
	}
}

func TestAppendPairsKeepsFirstAnswer(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	url := "https://example.com/faq.pdf"
	if _, err := s.GetOrCreate(ctx, url, "ns"); err != nil {
		t.Fatalf("GetOrCreate() error: %v", err)
	}

	if err := s.AppendPairs(ctx, url, []QAPair{{Question: "What is covered?", Answer: "Everything."}}); err != nil {
		t.Fatalf("AppendPairs() error: %v", err)
	}
	if err := s.AppendPairs(ctx, url, []QAPair{{Question: "WHAT IS COVERED?", Answer: "Nothing."}}); err != nil {
		t.Fatalf("second AppendPairs() error: %v", err)
	}

	doc, err := s.GetByURL(ctx, url)
	if err != nil {
		t.Fatalf("GetByURL() error: %v", err)
	}
	if len(doc.Pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(doc.Pairs))
	}
	if doc.Pairs[0].Answer != "Everything." {
		t.Errorf("first answer overwritten: %q", doc.Pairs[0].Answer)
	}
}

func TestFindAnswersCaseFolds(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	url := "https://example.com/policy.pdf"
	if _, err := s.GetOrCreate(ctx, url, "ns"); err != nil {
		t.Fatalf("GetOrCreate() error: %v", err)
	}
	if err := s.AppendPairs(ctx, url, []QAPair{{Question: "What is the deductible?", Answer: "500 dollars."}}); err != nil {
		t.Fatalf("AppendPairs() error: %v", err)
	}

	found, err := s.FindAnswers(ctx, url, []string{
		"WHAT IS THE DEDUCTIBLE?",
		"What is the premium?",
	})
	if err != nil {
		t.Fatalf("FindAnswers() error: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(found))
	}
	// Hits are keyed by the question as asked, not the stored form.
	if found["WHAT IS THE DEDUCTIBLE?"] != "500 dollars." {
		t.Errorf("unexpected hit map: %v", found)
	}
}

func TestClearPairsKeepsDocument(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	url := "https://example.com/policy.pdf"
	if _, err := s.GetOrCreate(ctx, url, "ns"); err != nil {
		t.Fatalf("GetOrCreate() error: %v", err)
	}
	if err := s.AppendQuestions(ctx, url, []string{"Q1?"}); err != nil {
		t.Fatalf("AppendQuestions() error: %v", err)
	}
	if err := s.AppendPairs(ctx, url, []QAPair{{Question: "Q1?", Answer: "A1."}}); err != nil {
		t.Fatalf("AppendPairs() error: %v", err)
	}

	if err := s.ClearPairs(ctx, url); err != nil {
		t.Fatalf("ClearPairs() error: %v", err)
	}

	doc, err := s.GetByURL(ctx, url)
	if err != nil {
		t.Fatalf("GetByURL() error: %v", err)
	}
	if doc == nil {
		t.Fatal("document record deleted by ClearPairs")
	}
	if len(doc.Questions) != 0 || len(doc.Pairs) != 0 {
		t.Errorf("expected empty history, got %d questions %d pairs", len(doc.Questions), len(doc.Pairs))
	}
}

func TestList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, url := range []string{"https://a.example/1.pdf", "https://b.example/2.pdf"} {
		if _, err := s.GetOrCreate(ctx, url, "ns_"+url[8:9]); err != nil {
			t.Fatalf("GetOrCreate(%s) error: %v", url, err)
		}
	}

	docs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 documents, got %d", len(docs))
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  What Is COVERED?  "); got != "what is covered?" {
		t.Errorf("Normalize = %q", got)
	}
}
