package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recordingT struct {
	testing.TB
	failed string
}

func (r *recordingT) Helper() {}
func (r *recordingT) Fatalf(format string, args ...any) {
	r.failed = format
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestAssertNoDirectImportsFlagsViolation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n\nimport _ \"rigcore/internal/skin\"\n")

	rec := &recordingT{TB: t}
	AssertNoDirectImports(rec, dir, InternalImportForbidden, "test rule")
	if rec.failed == "" {
		t.Fatal("violation was not reported")
	}
}

func TestAssertNoDirectImportsIgnoresTestsAndCleanFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n\nimport _ \"fmt\"\n")
	writeFile(t, dir, "a_test.go", "package a\n\nimport _ \"rigcore/internal/skin\"\n")

	rec := &recordingT{TB: t}
	AssertNoDirectImports(rec, dir, InternalImportForbidden, "test rule")
	if rec.failed != "" {
		t.Fatalf("clean package reported: %s", rec.failed)
	}
}

func TestPredicates(t *testing.T) {
	if !InternalImportForbidden("rigcore/internal/generate") {
		t.Error("internal import not flagged")
	}
	if InternalImportForbidden("rigcore/pkg/armature") {
		t.Error("pkg import flagged")
	}
	if !ArtifactBackendForbidden("rigcore/internal/artifact/s3") {
		t.Error("backend import not flagged")
	}
	if ArtifactBackendForbidden("rigcore/internal/artifact") {
		t.Error("facade import flagged")
	}
	if strings.Contains("rigcore/internal/artifact", "/artifact/") {
		t.Error("sanity: facade path should not match backend prefix")
	}
}
