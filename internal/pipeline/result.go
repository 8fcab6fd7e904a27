package pipeline

import (
	"github.com/dgallion1/docrank/internal/similarity"
)

// Result is the cross-document analysis output.
type Result struct {
	Metadata    Metadata             `json:"metadata"`
	Extracted   []ExtractedSection   `json:"extracted_sections"`
	Subsections []SubsectionAnalysis `json:"subsection_analysis"`
}

// Metadata describes the run that produced a result.
type Metadata struct {
	InputDocuments        []string        `json:"input_documents"`
	Persona               string          `json:"persona"`
	JobToBeDone           string          `json:"job_to_be_done"`
	ProcessingTimestamp   string          `json:"processing_timestamp"`
	ProcessingTimeSeconds float64         `json:"processing_time_seconds"`
	SimilarityProvider    similarity.Info `json:"similarity_provider"`
	PartialResults        bool            `json:"partial_results"`
	DocumentsSkipped      int             `json:"documents_skipped"`
}

// ExtractedSection is one ranked section.
type ExtractedSection struct {
	Document       string   `json:"document"`
	PageNumber     int      `json:"page_number"`
	SectionTitle   string   `json:"section_title"`
	ImportanceRank int      `json:"importance_rank"`
	RelevanceScore float64  `json:"relevance_score"`
	Explanation    []string `json:"explanation"`
}

// SubsectionAnalysis carries the refined text of a top-ranked section.
type SubsectionAnalysis struct {
	Document       string  `json:"document"`
	PageNumber     int     `json:"page_number"`
	RefinedText    string  `json:"refined_text"`
	RelevanceScore float64 `json:"relevance_score"`
}
