package pyext

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func newHelperDistributor(t *testing.T, mode string) *SetuptoolsDistributor {
	t.Helper()
	stubCommands(t, func(string, []string) string { return mode })

	d := NewSetuptoolsDistributor("python3")
	d.Env = map[string]string{"GO_WANT_HELPER_PROCESS": "1"}
	d.Verbose = true
	return d
}

func TestSetuptoolsDistributorName(t *testing.T) {
	d := NewSetuptoolsDistributor("")
	if d.Name() != "setuptools" {
		t.Errorf("expected name setuptools, got %s", d.Name())
	}
	if d.Python == "" {
		t.Error("expected a default interpreter")
	}

	tools := d.RequiredTools()
	if len(tools) != 1 || tools[0].Optional {
		t.Errorf("expected the interpreter as the only required tool, got %+v", tools)
	}
}

func TestSetuptoolsDistributorReportsNewArtifacts(t *testing.T) {
	root := t.TempDir()
	stale := writeFile(t, filepath.Join(root, "dist", "decord-0.5.0.tar.gz"), "old")
	d := newHelperDistributor(t, "setup-ok")

	req := &SetupRequest{ProjectRoot: root, Command: []string{"bdist_wheel"}, Name: "decord", Version: "0.6.0"}
	result, err := d.Distribute(context.Background(), req)
	if err != nil {
		t.Fatalf("Distribute returned error: %v\n%s", err, strings.Join(result.Output, "\n"))
	}

	if !result.Success {
		t.Error("expected Success")
	}
	if !reflect.DeepEqual(result.Artifacts, []string{"dist/decord-0.6.0-py3-none-any.whl"}) {
		t.Errorf("expected only the new wheel, got %v (stale %s)", result.Artifacts, stale)
	}

	var requestPath string
	for _, line := range result.Output {
		if p, ok := strings.CutPrefix(line, "Setup request: "); ok {
			requestPath = p
		}
	}
	if requestPath == "" {
		t.Fatalf("expected the request path in verbose output, got %v", result.Output)
	}
	if _, err := os.Stat(requestPath); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected the request file removed, stat returned %v", err)
	}
	if !strings.Contains(strings.Join(result.Output, "\n"), "running bdist_wheel") {
		t.Errorf("expected tool output captured, got %v", result.Output)
	}
}

func TestSetuptoolsDistributorFailure(t *testing.T) {
	root := t.TempDir()
	d := newHelperDistributor(t, "setup-fail")

	req := &SetupRequest{ProjectRoot: root, Command: []string{"build_ext", "--inplace"}, Name: "decord", Version: "0.6.0"}
	result, err := d.Distribute(context.Background(), req)
	if !errors.Is(err, ErrDistribution) {
		t.Fatalf("expected ErrDistribution, got %v", err)
	}
	if result.Success {
		t.Error("expected Success to be false")
	}
	if !strings.Contains(err.Error(), "error: command 'gcc' failed") {
		t.Errorf("expected tool output in the error, got %v", err)
	}
	if !strings.Contains(err.Error(), "setuptools build_ext --inplace failed") {
		t.Errorf("expected the command in the error, got %v", err)
	}
}

func TestListDistMissingDirectory(t *testing.T) {
	names, err := listDist(t.TempDir())
	if err != nil {
		t.Fatalf("listDist returned error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected no files, got %v", names)
	}
}

func TestDistributionError(t *testing.T) {
	output := []string{"line 1", "line 2", "error occurred"}
	err := DistributionError("setuptools sdist", output, nil)

	expected := "distribution failed: setuptools sdist failed\n\nBuild output:\nline 1\nline 2\nerror occurred"
	if err.Error() != expected {
		t.Errorf("DistributionError output mismatch.\nExpected: %s\nGot: %s", expected, err.Error())
	}
	if !errors.Is(err, ErrDistribution) {
		t.Error("expected ErrDistribution")
	}

	bare := DistributionError("setuptools sdist", nil, errors.New("exit status 1"))
	if bare.Error() != "distribution failed: setuptools sdist failed: exit status 1" {
		t.Errorf("unexpected message without output: %s", bare.Error())
	}
}

func TestRunDistributionStopsAtFirstFailure(t *testing.T) {
	var calls []string
	boom := errors.New("boom")

	result, err := runDistribution(context.Background(), &SetupRequest{}, DistributionSteps{
		ConfigureFunc: func(_ context.Context, _ *SetupRequest, r *DistributionResult) error {
			calls = append(calls, "configure")
			r.Output = append(r.Output, "configured")
			return nil
		},
		BuildFunc: func(context.Context, *SetupRequest, *DistributionResult) error {
			calls = append(calls, "build")
			return boom
		},
		FindFunc: func(*SetupRequest) ([]string, error) {
			calls = append(calls, "find")
			return nil, nil
		},
	})

	if !errors.Is(err, boom) {
		t.Fatalf("expected build error, got %v", err)
	}
	if !reflect.DeepEqual(calls, []string{"configure", "build"}) {
		t.Errorf("unexpected step order %v", calls)
	}
	if result.Success || !reflect.DeepEqual(result.Output, []string{"configured"}) {
		t.Errorf("expected partial output and Success=false, got %+v", result)
	}
}
