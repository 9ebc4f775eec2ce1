package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for page documents.
// Title is stored with term vectors for highlighting; body text is
// searchable but not stored.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	textField := func(store, vectors bool) *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = en.AnalyzerName
		fm.Store = store
		fm.IncludeTermVectors = vectors
		return fm
	}
	docMapping.AddFieldMappingsAt("title", textField(true, true))
	docMapping.AddFieldMappingsAt("description", textField(true, false))
	docMapping.AddFieldMappingsAt("intro", textField(false, true))
	docMapping.AddFieldMappingsAt("body", textField(false, true))

	// Keyword fields match exactly; tags keep their case.
	keywordField := func(store bool) *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = store
		return fm
	}
	docMapping.AddFieldMappingsAt("type", keywordField(true))
	docMapping.AddFieldMappingsAt("tags", keywordField(true))
	docMapping.AddFieldMappingsAt("url", keywordField(true))

	pageIDField := bleve.NewNumericFieldMapping()
	pageIDField.Store = true
	docMapping.AddFieldMappingsAt("page_id", pageIDField)

	dateField := bleve.NewNumericFieldMapping()
	dateField.Store = true
	docMapping.AddFieldMappingsAt("date", dateField)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
