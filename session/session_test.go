package session

import "testing"

func TestFormatHistory(t *testing.T) {
	if got := FormatHistory(nil); got != "" {
		t.Fatalf("empty history must format to \"\", got %q", got)
	}
	got := FormatHistory([]Exchange{
		{Query: "hello", Answer: "hi"},
		{Query: "what is Go?", Answer: "A language."},
	})
	want := "User: hello\nAssistant: hi\nUser: what is Go?\nAssistant: A language."
	if got != want {
		t.Fatalf("FormatHistory = %q, want %q", got, want)
	}
}

func TestTail(t *testing.T) {
	exchanges := []Exchange{{Query: "a"}, {Query: "b"}, {Query: "c"}}

	if got := Tail(exchanges, 2); len(got) != 2 || got[0].Query != "b" {
		t.Fatalf("Tail(2) = %+v", got)
	}
	if got := Tail(exchanges, 0); len(got) != 3 {
		t.Fatalf("Tail(0) must keep everything, got %d", len(got))
	}
	if got := Tail(exchanges, 10); len(got) != 3 {
		t.Fatalf("Tail beyond length must keep everything, got %d", len(got))
	}
	if got := Tail(nil, 2); len(got) != 0 {
		t.Fatalf("Tail(nil) = %+v", got)
	}
}
