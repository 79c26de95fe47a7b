package search

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/doclens/doclens/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBulkBody(t *testing.T) {

	documents := []*model.Document{
		{
			ID:      "id-1",
			Content: "first document",
			Metadata: model.DocumentMetadata{
				FileName:    "a.txt",
				FileType:    model.FileTypeTxt,
				StoragePath: "docs/a.txt",
			},
			IndexedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:      "id-2",
			Content: "second document",
			Metadata: model.DocumentMetadata{
				FileName:    "b.txt",
				FileType:    model.FileTypeTxt,
				StoragePath: "docs/b.txt",
			},
		},
	}

	body, err := buildBulkBody("documents", documents)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	require.Len(t, lines, 4)

	var action map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &action))
	assert.Equal(t, "documents", action["index"]["_index"])
	assert.Equal(t, "id-1", action["index"]["_id"])

	var source map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &source))
	assert.Equal(t, "first document", source["content"])

	// The id is index routing data, it must never leak into the source.
	assert.NotContains(t, source, "ID")
	metadata := source["metadata"].(map[string]interface{})
	assert.Equal(t, "docs/a.txt", metadata["storage_path"])

	require.NoError(t, json.Unmarshal([]byte(lines[2]), &action))
	assert.Equal(t, "id-2", action["index"]["_id"])
}

func TestBuildBulkBody_Empty(t *testing.T) {

	body, err := buildBulkBody("documents", nil)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestDocumentIDs(t *testing.T) {

	ids := documentIDs([]*model.Document{{ID: "a"}, {ID: "b"}})
	assert.Equal(t, []string{"a", "b"}, ids)
}
