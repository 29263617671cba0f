package conformance

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"js2f/compiler"
)

// TestConformance compiles every YAML case under testdata/ and compares
// the assembly (whitespace-normalized) or the failure kind.
func TestConformance(t *testing.T) {
	cases, err := LoadAllSuites("testdata")
	if err != nil {
		t.Fatalf("loading suites: %v", err)
	}
	if len(cases) == 0 {
		t.Fatal("no conformance cases found")
	}

	for _, lc := range cases {
		lc := lc
		t.Run(lc.Suite+"/"+lc.Case.Name, func(t *testing.T) {
			got, err := compiler.Compile(lc.File, lc.Case.Source, compiler.Options{
				Annotate: lc.Case.Annotate,
			})

			if lc.Case.Error != "" {
				if err == nil {
					t.Fatalf("expected %s error, compiled successfully:\n%s", lc.Case.Error, got)
				}
				if !strings.Contains(err.Error(), lc.Case.Error) {
					t.Fatalf("expected %s error, got: %v", lc.Case.Error, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("compile failed: %v", err)
			}
			if diff := cmp.Diff(normalize(lc.Case.Expect), normalize(got)); diff != "" {
				t.Errorf("assembly mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// normalize collapses runs of whitespace and drops blank lines so
// comparisons ignore indentation and annotation padding
func normalize(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
