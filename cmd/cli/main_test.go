package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thisisjab/oafilter/entity"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cli := NewCLI()
	var out bytes.Buffer
	cli.root.SetOut(&out)
	cli.root.SetIn(strings.NewReader(stdin))
	cli.root.SetArgs(args)

	err := cli.root.Execute()
	return out.String(), err
}

func TestTokenize(t *testing.T) {
	out, err := run(t, "", "tokenize", "(name LIKE '%x%')")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"OpenBracket", "Symbol", "BinaryOperator", "contains", `"x"`, "ClosedBracket"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	if _, err := run(t, "", "tokenize", "(name ? 1)"); err == nil {
		t.Fatalf("expected lexing error")
	}
}

func TestParseAndSerialize(t *testing.T) {
	queryables := filepath.Join(t.TempDir(), "queryables.json")
	if err := os.WriteFile(queryables, []byte(`[{"id": "depth", "type": "float"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	expression := "((depth >= 1.5 AND depth <= 3))"

	out, err := run(t, expression+"\n", "parse", "--queryables", queryables)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var groups []entity.FilterGroup
	if err := json.Unmarshal([]byte(out), &groups); err != nil {
		t.Fatalf("cannot decode output %q: %v", out, err)
	}
	if len(groups) != 1 || groups[0].Predicates[0].Operator.Name != entity.OperatorBetween {
		t.Fatalf("unexpected groups %+v", groups)
	}

	out, err = run(t, out, "serialize")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.TrimSpace(out) != "(((depth >= 1.5 AND depth <= 3)))" {
		t.Fatalf("unexpected expression %q", out)
	}
}

func TestParseRequiresQueryables(t *testing.T) {
	if _, err := run(t, "", "parse", "(a_ = 1)"); err == nil {
		t.Fatalf("expected error for missing --queryables flag")
	}
}

func TestSerializeBadInput(t *testing.T) {
	if _, err := run(t, "{", "serialize"); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}
