package observability

import "testing"

func TestNormalizedPathNumericSegments(t *testing.T) {
	got := normalizedPath("/api/v1/test/questions/12")
	want := "/api/v1/test/questions/{id}"
	if got != want {
		t.Fatalf("normalizedPath mismatch got=%s want=%s", got, want)
	}
}

func TestNormalizedPathUUIDSegments(t *testing.T) {
	got := normalizedPath("/api/v1/admin/attempts/6f1f7a52-9f0c-4f2e-9a93-0b8f6f2d1c11")
	want := "/api/v1/admin/attempts/{id}"
	if got != want {
		t.Fatalf("normalizedPath mismatch got=%s want=%s", got, want)
	}
}

func TestNormalizedPathLeavesNamesAlone(t *testing.T) {
	got := normalizedPath("/api/v1/modules/module1-co")
	if got != "/api/v1/modules/module1-co" {
		t.Fatalf("unexpected normalization: %s", got)
	}
}
