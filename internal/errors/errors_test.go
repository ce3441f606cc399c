package errors

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *BuildError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("exit status 3"), CategoryDeploy, SeverityFatal, "deploy failed"),
			expected: "deploy (fatal): deploy failed: exit status 3",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.err.Error())
		})
	}
}

func TestBuildError_WithContext(t *testing.T) {
	err := New(CategoryPush, SeverityFatal, "push failed").
		WithContext("remote", "backup").
		WithContext("position", 2)

	require.NotNil(t, err.Context)
	assert.Equal(t, "backup", err.Context["remote"])
	assert.Equal(t, 2, err.Context["position"])
}

func TestIsCategoryThroughWrapping(t *testing.T) {
	cleanErr := StageFailed(CategoryClean, "clean", fmt.Errorf("permission denied"))
	wrapped := fmt.Errorf("pipeline: %w", cleanErr)

	assert.True(t, IsCategory(wrapped, CategoryClean))
	assert.False(t, IsCategory(wrapped, CategoryDeploy))
	assert.False(t, IsCategory(fmt.Errorf("plain"), CategoryClean))
	assert.Equal(t, CategoryInternal, GetCategory(fmt.Errorf("plain")))
}

func TestExitCodeContract(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)
	cause := fmt.Errorf("boom")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"build", StageFailed(CategoryBuild, "generate", cause), 1},
		{"deploy", StageFailed(CategoryDeploy, "deploy", cause), 2},
		{"clean", StageFailed(CategoryClean, "clean", cause), 3},
		{"push", StageFailed(CategoryPush, "git push", cause), 4},
		{"server", StageFailed(CategoryServer, "launch server", cause), 5},
		{"index", StageFailed(CategoryIndex, "index", cause), 9},
		{"config", ConfigNotFound("_build.json", "_build.sample.json"), 1},
		{"already running", AlreadyRunning("/tmp/sitebuild.pid", "42"), 1},
		{"interrupted one-shot", Interrupted("generate", cause), 1},
		{"unclassified", cause, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestFormatErrorIncludesRemediation(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	msg := adapter.FormatError(ConfigNotFound("_build.json", "_build.sample.json"))
	assert.Contains(t, msg, "configuration file not found")
	assert.Contains(t, msg, "_build.sample.json")

	msg = adapter.FormatError(AlreadyRunning("/tmp/sitebuild.pid", "4242"))
	assert.Contains(t, msg, "4242")
	assert.Contains(t, msg, "remove /tmp/sitebuild.pid")
}

func TestReportWritesOnceAndReturnsCode(t *testing.T) {
	var out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, nil).WithOutput(&out)

	code := adapter.Report(StageFailed(CategoryClean, "clean", stdErrors.New("permission denied")))
	assert.Equal(t, ExitCleanFailure, code)
	assert.Equal(t, "clean: clean failed: permission denied\n", out.String())

	out.Reset()
	assert.Equal(t, ExitSuccess, adapter.Report(nil))
	assert.Empty(t, out.String())
}
