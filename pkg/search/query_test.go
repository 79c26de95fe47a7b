package search

import (
	"testing"

	"github.com/doclens/doclens/pkg/config"
	"github.com/doclens/doclens/pkg/model"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSearchConfig() *config.SearchConfig {
	return &config.SearchConfig{
		DefaultLimit:          10,
		MaxLimit:              100,
		MinScore:              0.1,
		HighlightFragments:    3,
		HighlightFragmentSize: 150,
		MaxAnalyzedOffset:     1000000,
	}
}

func TestBuildSearchQuery_Defaults(t *testing.T) {

	body := BuildSearchQuery(&model.SearchQuery{Query: "invoice"}, testSearchConfig())

	assert.Equal(t, 10, body["size"])
	assert.Equal(t, 0.1, body["min_score"])

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]map[string]interface{})
	require.Len(t, must, 1)

	multiMatch := must[0]["multi_match"].(map[string]interface{})
	assert.Equal(t, "invoice", multiMatch["query"])
	assert.Equal(t, "best_fields", multiMatch["type"])
	assert.Equal(t, "AUTO", multiMatch["fuzziness"])
	assert.Equal(t, []string{
		"content^2",
		"metadata.file_name.text^1.5",
		"metadata.csv_columns^1.2",
	}, multiMatch["fields"])

	// No file type filter unless one was requested.
	assert.Empty(t, boolQuery["filter"])
}

func TestBuildSearchQuery_LimitClamping(t *testing.T) {

	cfg := testSearchConfig()

	assert.Equal(t, 10, BuildSearchQuery(&model.SearchQuery{Query: "q"}, cfg)["size"])
	assert.Equal(t, 10, BuildSearchQuery(&model.SearchQuery{Query: "q", Limit: -5}, cfg)["size"])
	assert.Equal(t, 25, BuildSearchQuery(&model.SearchQuery{Query: "q", Limit: 25}, cfg)["size"])
	assert.Equal(t, 100, BuildSearchQuery(&model.SearchQuery{Query: "q", Limit: 5000}, cfg)["size"])
}

func TestBuildSearchQuery_MinScoreOverride(t *testing.T) {

	cfg := testSearchConfig()

	zero := 0.0
	body := BuildSearchQuery(&model.SearchQuery{Query: "q", MinScore: &zero}, cfg)
	assert.Equal(t, 0.0, body["min_score"])

	custom := 2.5
	body = BuildSearchQuery(&model.SearchQuery{Query: "q", MinScore: &custom}, cfg)
	assert.Equal(t, 2.5, body["min_score"])
}

func TestBuildSearchQuery_FileTypeFilter(t *testing.T) {

	body := BuildSearchQuery(&model.SearchQuery{Query: "q", FileType: model.FileTypePdf}, testSearchConfig())

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filters := boolQuery["filter"].([]map[string]interface{})
	require.Len(t, filters, 1)

	term := filters[0]["term"].(map[string]interface{})
	assert.Equal(t, model.FileTypePdf, term["metadata.file_type"])
}

func TestBuildSearchQuery_HighlightAndSort(t *testing.T) {

	body := BuildSearchQuery(&model.SearchQuery{Query: "q"}, testSearchConfig())

	highlight := body["highlight"].(map[string]interface{})
	assert.Equal(t, []string{"<mark>"}, highlight["pre_tags"])
	assert.Equal(t, []string{"</mark>"}, highlight["post_tags"])

	contentField := highlight["fields"].(map[string]interface{})["content"].(map[string]interface{})
	assert.Equal(t, 150, contentField["fragment_size"])
	assert.Equal(t, 3, contentField["number_of_fragments"])
	assert.Equal(t, 1000000, contentField["max_analyzed_offset"])

	sort := body["sort"].([]interface{})
	require.Len(t, sort, 2)
	assert.Equal(t, "_score", sort[0])
	modifiedAt := sort[1].(map[string]interface{})["metadata.modified_at"].(map[string]interface{})
	assert.Equal(t, "desc", modifiedAt["order"])
}

func TestDecodeSearchResults(t *testing.T) {

	client := &Client{
		cfg:       &config.Config{Search: *testSearchConfig()},
		publicURL: func(storagePath string) string { return "http://store/documents/" + storagePath },
		logger:    logrus.New().WithField("type", "test"),
	}

	pageCount := 4
	hits := []searchHit{
		{
			ID:    "doc-1",
			Score: 3.2,
			Source: documentSource{
				Metadata: model.DocumentMetadata{
					FileName:    "report.pdf",
					FileType:    model.FileTypePdf,
					FileSize:    2048,
					StoragePath: "reports/report.pdf",
					PageCount:   &pageCount,
				},
			},
			Highlight: map[string][]string{
				"content": {"a <mark>match</mark> here"},
			},
		},
		{
			ID:    "doc-2",
			Score: 1.1,
			Source: documentSource{
				Metadata: model.DocumentMetadata{
					FileName:    "notes.txt",
					FileType:    model.FileTypeTxt,
					StoragePath: "notes.txt",
				},
			},
			// No highlight, e.g. a pure file name match.
		},
	}

	results := client.decodeSearchResults(hits)
	require.Len(t, results, 2)

	assert.Equal(t, "doc-1", results[0].DocumentID)
	assert.Equal(t, "report.pdf", results[0].FileName)
	assert.Equal(t, "http://store/documents/reports/report.pdf", results[0].URL)
	assert.Equal(t, 3.2, results[0].Score)
	assert.Equal(t, []string{"a <mark>match</mark> here"}, results[0].Highlights)
	assert.Equal(t, 4, results[0].Metadata["page_count"])

	// Missing highlights decode to an empty slice, never nil.
	assert.NotNil(t, results[1].Highlights)
	assert.Empty(t, results[1].Highlights)
	assert.NotContains(t, results[1].Metadata, "page_count")
}
