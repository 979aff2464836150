package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/odvcencio/churn/pkg/churn"
)

func sampleRows() []churn.Row {
	return []churn.Row{
		{Path: "README", Versions: 1},
		{Path: "lib/util.go", Versions: 12},
		{Path: "a/b.txt", Versions: 3},
		{Path: "a/c.txt", Versions: 3},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleRows(), Options{Format: FormatText, Summary: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "" +
		" 1 README\n" +
		" 3 a/b.txt\n" +
		" 3 a/c.txt\n" +
		"12 lib/util.go\n" +
		"4 files, 19 versions\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTextSummaryCountsTruncatedRows(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Format: FormatText, Sort: SortVersions, Top: 1, Summary: true}
	if err := Write(&buf, sampleRows(), opts); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "12 lib/util.go\n4 files, 19 versions\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTSVByVersionsTop(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleRows(), Options{Format: FormatTSV, Sort: SortVersions, Top: 3}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "lib/util.go\t12\na/b.txt\t3\na/c.txt\t3\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("tsv mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleRows(), Options{Format: FormatJSON, Top: 2}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal: %v\n%s", err, buf.String())
	}
	want := []map[string]any{
		{"path": "README", "versions": float64(1)},
		{"path": "a/b.txt", "versions": float64(3)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("json mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, Options{Format: FormatJSON}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty json = %q, want []", buf.String())
	}
}

func TestSummaryHumanized(t *testing.T) {
	rows := []churn.Row{{Path: "big", Versions: 1234567}}
	if got, want := Summary(rows), "1 file, 1,234,567 versions"; got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}

func TestTop(t *testing.T) {
	rows := sampleRows()
	for n, want := range map[int]int{0: 4, -1: 4, 2: 2, 10: 4} {
		if got := len(Top(rows, n)); got != want {
			t.Errorf("Top(%d) kept %d rows, want %d", n, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %q, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("ParseFormat(\"\") = %q, %v", f, err)
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Error("ParseFormat(csv) should fail")
	}
	if k, err := ParseSortKey("versions"); err != nil || k != SortVersions {
		t.Errorf("ParseSortKey(versions) = %q, %v", k, err)
	}
	if _, err := ParseSortKey("age"); err == nil {
		t.Error("ParseSortKey(age) should fail")
	}
}
