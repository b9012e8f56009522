package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCombineIsAdditive(t *testing.T) {
	require.Equal(t, Version(3), Version(1).Combine(Version(2)))
	require.Equal(t, Version(1), Version(1).Combine(Version(0)))
}

func TestColumnNamesAreUnique(t *testing.T) {
	seen := make(map[ColumnName]bool, len(Columns))
	for _, c := range Columns {
		require.False(t, seen[c.Name], "duplicate column name %s", c.Name)
		seen[c.Name] = true
	}
}

func TestPartitionNamesAreUnique(t *testing.T) {
	seen := make(map[PartitionName]bool, len(Partitions))
	for _, p := range Partitions {
		require.False(t, seen[p.Name], "duplicate partition name %s", p.Name)
		seen[p.Name] = true
	}
}

func TestColumnsByKeySpaceGroupsCorrectly(t *testing.T) {
	heightCols := ColumnsByKeySpace(KeySpaceHeight)
	require.NotEmpty(t, heightCols)
	for _, c := range heightCols {
		require.Equal(t, KeySpaceHeight, c.KeySpace)
	}

	require.Empty(t, ColumnsByKeySpace(KeySpace("no-such-space")))
}

func TestEveryNonHeightSpaceHasACursorColumn(t *testing.T) {
	spaces := map[KeySpace]bool{}
	for _, c := range Columns {
		spaces[c.KeySpace] = true
	}
	for ks := range spaces {
		if ks == KeySpaceHeight {
			continue
		}
		_, ok := CursorColumn(ks)
		require.True(t, ok, "key space %s has no first_* cursor column", ks)
	}
}

func TestCursorColumnMissReportsFalse(t *testing.T) {
	_, ok := CursorColumn(KeySpace("no-such-space"))
	require.False(t, ok)
}
