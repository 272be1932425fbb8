package pathmap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/suitesync/internal/common"
)

func TestResolve_RemapsWatchFolderToUploadFolder(t *testing.T) {
	target, err := Resolve(
		"src/FileCabinet/SuiteScripts/a/b.js",
		"/home/dev/project",
		"src", "dist", "/SuiteScripts",
	)
	require.NoError(t, err)

	assert.True(t, target.WasRemapped)
	wantSuffix := filepath.FromSlash("dist/FileCabinet/SuiteScripts/a/b.js")
	assert.True(t, len(target.PhysicalPath) > len(wantSuffix))
	assert.Equal(t, wantSuffix, target.PhysicalPath[len(target.PhysicalPath)-len(wantSuffix):])
	assert.Equal(t, "/SuiteScripts/a/b.js", target.RemotePath)
}

func TestResolve_NoRemapWhenFoldersMatch(t *testing.T) {
	target, err := Resolve(
		"/home/dev/project/src/FileCabinet/SuiteScripts/lib/util.js",
		"/home/dev/project",
		"src", "src", "/SuiteScripts",
	)
	require.NoError(t, err)

	assert.False(t, target.WasRemapped)
	assert.Equal(t, filepath.FromSlash("/home/dev/project/src/FileCabinet/SuiteScripts/lib/util.js"), target.PhysicalPath)
	assert.Equal(t, "/SuiteScripts/lib/util.js", target.RemotePath)
}

func TestResolve_PassesThroughOutsideWatchTree(t *testing.T) {
	target, err := Resolve(
		"docs/readme.md",
		"/home/dev/project",
		"src", "dist", "/SuiteScripts",
	)
	require.NoError(t, err)

	assert.False(t, target.WasRemapped)
	assert.Equal(t, filepath.FromSlash("/home/dev/project/docs/readme.md"), target.PhysicalPath)
	assert.Equal(t, "/SuiteScripts/docs/readme.md", target.RemotePath)
}

func TestResolve_RootMarkerIsCaseInsensitive(t *testing.T) {
	target, err := Resolve(
		"src/FileCabinet/suitescripts/app/main.js",
		"/ws",
		"src", "dist", "/SuiteScripts",
	)
	require.NoError(t, err)

	assert.Equal(t, "/suitescripts/app/main.js", target.RemotePath)
}

func TestResolve_FallsBackToRootPathWithoutMarker(t *testing.T) {
	target, err := Resolve(
		"src/templates/email.ftl",
		"/ws",
		"src", "dist", "/SuiteScripts",
	)
	require.NoError(t, err)

	assert.True(t, target.WasRemapped)
	assert.Equal(t, "/SuiteScripts/templates/email.ftl", target.RemotePath)
}

func TestResolve_NormalizesSeparators(t *testing.T) {
	target, err := Resolve(
		`src\FileCabinet\SuiteScripts\a.js`,
		"/ws",
		"src", "src", "/SuiteScripts",
	)
	require.NoError(t, err)

	assert.Equal(t, "/SuiteScripts/a.js", target.RemotePath)
}

func TestResolve_CollapsesRepeatedSeparators(t *testing.T) {
	target, err := Resolve(
		"src//FileCabinet//SuiteScripts//a.js",
		"/ws",
		"src", "src", "/SuiteScripts",
	)
	require.NoError(t, err)

	assert.Equal(t, "/SuiteScripts/a.js", target.RemotePath)
}

func TestResolve_SingleLeadingSlashGuarantee(t *testing.T) {
	tests := []struct {
		name     string
		rootPath string
	}{
		{"with leading slash", "/SuiteScripts"},
		{"without leading slash", "SuiteScripts"},
		{"with trailing slash", "/SuiteScripts/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := Resolve("other/x.js", "/ws", "src", "dist", tt.rootPath)
			require.NoError(t, err)
			assert.Equal(t, "/SuiteScripts/other/x.js", target.RemotePath)
		})
	}
}

func TestResolve_RejectsParentSegments(t *testing.T) {
	_, err := Resolve("src/../../etc/passwd", "/ws", "src", "dist", "/SuiteScripts")
	assert.ErrorIs(t, err, common.ErrPathTraversal)
}
