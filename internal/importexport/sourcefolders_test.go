package importexport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Concrete scenario from §8: inputs {"/a/b","/a/b/c","/d","/d"} with
// git_root "/a" yield ["/d","/a"].
func TestProcessSourceFoldersListScenario(t *testing.T) {
	got := ProcessSourceFoldersList([]string{"/a/b", "/a/b/c", "/d", "/d"}, "/a", "")
	require.Equal(t, []string{"/d", "/a"}, got)
}

func TestProcessSourceFoldersListNoGitRoot(t *testing.T) {
	got := ProcessSourceFoldersList([]string{"/a/b", "/a/b/c", "/d"}, "", "")
	require.Equal(t, []string{"/a/b", "/d"}, got)
}

func TestProcessSourceFoldersListFallback(t *testing.T) {
	got := ProcessSourceFoldersList(nil, "", "/usr/bin")
	require.Equal(t, []string{"/usr/bin"}, got)
}

// Property 5: result is pairwise antichain, all absolute, git root last if present.
func TestProcessSourceFoldersListProperty(t *testing.T) {
	inputs := []string{"/x/y/z", "/x/y", "/w", "/w/v", "/q"}
	got := ProcessSourceFoldersList(inputs, "/x", "")

	for _, p := range got {
		require.True(t, len(p) > 0 && p[0] == '/')
	}
	for i := range got {
		for j := range got {
			if i == j {
				continue
			}
			require.False(t, startsWithDir(got[j], got[i]) && got[i] != got[j],
				"%s should not be a proper prefix of %s", got[i], got[j])
		}
	}
	require.Equal(t, "/x", got[len(got)-1])
}

func TestParentDirs(t *testing.T) {
	got := ParentDirs([]string{"/a/b/f1.go", "/a/b/f2.go", "/a/c/f3.go"})
	require.Equal(t, []string{"/a/b", "/a/c"}, got)
}

func TestCommonAncestor(t *testing.T) {
	require.Equal(t, "/a/b", CommonAncestor([]string{"/a/b/c/d.go", "/a/b/e.go"}))
	require.Equal(t, "", CommonAncestor(nil))
}
