package tabular

import (
	"reflect"
	"testing"
)

func TestDecodeSimple(t *testing.T) {
	rows := Decode("a,b,c\n1,2,3\n")
	want := [][]string{{"a", "b", "c"}, {"1", "2", "3"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("got %v, want %v", rows, want)
	}
}

func TestDecodeQuotedFields(t *testing.T) {
	in := `name,comment` + "\n" + `"Kumar, Raj","said ""ok"" twice"` + "\n"
	rows := Decode(in)
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "Kumar, Raj" {
		t.Fatalf("embedded comma lost: %q", rows[1][0])
	}
	if rows[1][1] != `said "ok" twice` {
		t.Fatalf("doubled quote not unescaped: %q", rows[1][1])
	}
}

func TestDecodeQuotedNewline(t *testing.T) {
	in := "a,b\n\"line1\nline2\",x\n"
	rows := Decode(in)
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "line1\nline2" {
		t.Fatalf("embedded newline lost: %q", rows[1][0])
	}
}

func TestDecodeLineEndings(t *testing.T) {
	for _, in := range []string{"a,b\r\nc,d\r\n", "a,b\rc,d\r", "a,b\nc,d"} {
		rows := Decode(in)
		want := [][]string{{"a", "b"}, {"c", "d"}}
		if !reflect.DeepEqual(rows, want) {
			t.Fatalf("input %q: got %v", in, rows)
		}
	}
}

func TestDecodeDropsBlankLines(t *testing.T) {
	rows := Decode("a,b\n\n , \nc,d\n\n")
	if len(rows) != 2 {
		t.Fatalf("blank lines should be dropped, got %d rows", len(rows))
	}
}

func TestDecodeUnterminatedQuoteConsumesToEnd(t *testing.T) {
	rows := Decode("a,b\n\"open,never closed\nc,d")
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "open,never closed\nc,d" {
		t.Fatalf("greedy consumption expected, got %q", rows[1][0])
	}
}

func TestEncodeCellQuoting(t *testing.T) {
	cases := map[string]string{
		"plain":     "plain",
		"a,b":       `"a,b"`,
		`has "q"`:   `"has ""q"""`,
		"two\nline": "\"two\nline\"",
		"":          "",
	}
	for in, want := range cases {
		if got := EncodeCell(in); got != want {
			t.Fatalf("EncodeCell(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRoundTripContent(t *testing.T) {
	rows := [][]string{
		{"Application Number", "Beneficiary Name", "Comments"},
		{"APP-1", "Kumar, Raj", "said \"ok\"\nthen left"},
		{"APP-2", "Meena", ""},
	}
	back := Decode(Encode(rows))
	if !reflect.DeepEqual(back, rows) {
		t.Fatalf("round trip mismatch:\n got %v\nwant %v", back, rows)
	}
}
