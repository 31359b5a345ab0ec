package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type taggedStruct struct {
	ID      int64  `db:"id"`
	Name    string `db:"name"`
	Skipped string `db:"-"`
	NoTag   string
}

func TestStructTagValues(t *testing.T) {
	cols := StructTagValues(taggedStruct{})
	require.Equal(t, []string{"id", "name"}, cols)

	ptrCols := StructTagValues(&taggedStruct{})
	require.Equal(t, cols, ptrCols)
}

func TestStructToMap(t *testing.T) {
	m := StructToMap(&taggedStruct{ID: 7, Name: "a.pdf", Skipped: "x", NoTag: "y"})
	require.Equal(t, map[string]any{"id": int64(7), "name": "a.pdf"}, m)
}
