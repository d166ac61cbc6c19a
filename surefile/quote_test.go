// quote_test.go - tests for the qstring codec
//
// (c) 2024- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2

package surefile

import (
	"bufio"
	"bytes"
	"testing"
)

func TestQuoteRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"simple",
		"has space",
		"has=equals",
		"trailing space ",
		"weird\x01\x02control",
		"100% sure",
	}

	for _, c := range cases {
		var buf bytes.Buffer
		if err := quoteString(&buf, c); err != nil {
			t.Fatalf("quoteString(%q): %s", c, err)
		}

		br := bufio.NewReader(&buf)
		got, err := readQString(br)
		if err != nil {
			t.Fatalf("readQString(%q): %s", c, err)
		}
		if got != c {
			t.Fatalf("round trip: got %q want %q", got, c)
		}
	}
}

func TestQuoteNeverEmitsBareSpace(t *testing.T) {
	var buf bytes.Buffer
	if err := quoteString(&buf, "a b"); err != nil {
		t.Fatalf("quoteString: %s", err)
	}
	encoded := buf.String()
	// Only the final, terminating space may appear unescaped.
	if n := bytesCount(encoded, ' '); n != 1 {
		t.Fatalf("encoded %q has %d unescaped spaces, want 1", encoded, n)
	}
}

func bytesCount(s string, b byte) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			n++
		}
	}
	return n
}
