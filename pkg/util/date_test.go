package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-01-02", "2024-01-02T00:00:00.000Z", `"2024-01-02T23:59:59Z"`, " 2024-01-02 "} {
		got, ok := ParseDate(in)
		if !ok {
			t.Fatalf("ParseDate(%q) failed", in)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}
	if _, ok := ParseDate("02/01/2024"); ok {
		t.Fatalf("expected failure for unsupported layout")
	}
}

func TestTruncateDay(t *testing.T) {
	in := time.Date(2024, 3, 4, 17, 30, 0, 0, time.UTC)
	if got := FormatDate(TruncateDay(in)); got != "2024-03-04" {
		t.Fatalf("unexpected %s", got)
	}
}
