package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for book documents.
//
// Title, description, and extracted text get English stemming for natural
// full-text matching; author and series use the simple analyzer so names
// are not stemmed; language and format are exact keywords for filtering.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = en.AnalyzerName
	titleField.Store = true
	titleField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", titleField)

	descField := bleve.NewTextFieldMapping()
	descField.Analyzer = en.AnalyzerName
	descField.Store = false
	docMapping.AddFieldMappingsAt("description", descField)

	// the body text is searchable but never stored; it can be megabytes
	// per book
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = en.AnalyzerName
	textField.Store = false
	textField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("extracted_text", textField)

	authorField := bleve.NewTextFieldMapping()
	authorField.Analyzer = simple.Name
	authorField.Store = true
	docMapping.AddFieldMappingsAt("author", authorField)

	seriesField := bleve.NewTextFieldMapping()
	seriesField.Analyzer = simple.Name
	seriesField.Store = true
	docMapping.AddFieldMappingsAt("series", seriesField)

	publisherField := bleve.NewTextFieldMapping()
	publisherField.Analyzer = simple.Name
	publisherField.Store = true
	docMapping.AddFieldMappingsAt("publisher", publisherField)

	subjectField := bleve.NewTextFieldMapping()
	subjectField.Analyzer = simple.Name
	subjectField.Store = true
	docMapping.AddFieldMappingsAt("subject", subjectField)

	idField := bleve.NewTextFieldMapping()
	idField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idField)

	languageField := bleve.NewTextFieldMapping()
	languageField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("language", languageField)

	formatField := bleve.NewTextFieldMapping()
	formatField.Analyzer = keyword.Name
	formatField.Store = true
	docMapping.AddFieldMappingsAt("format", formatField)

	yearField := bleve.NewNumericFieldMapping()
	yearField.Store = true
	docMapping.AddFieldMappingsAt("year", yearField)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
