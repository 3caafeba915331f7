package main

import "testing"

func TestParseVerdict(t *testing.T) {
	for in, want := range map[string]bool{"yes": true, "y": true, "clickbait": true, "no": false, "false": false} {
		got, err := parseVerdict(in)
		if err != nil {
			t.Fatalf("parseVerdict(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("parseVerdict(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseVerdict("maybe"); err == nil {
		t.Error("expected error for unknown verdict")
	}
}
