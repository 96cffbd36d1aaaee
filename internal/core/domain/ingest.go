package domain

// IngestOptions controls one run of the offline ingestion pipeline.
type IngestOptions struct {
	// Wipe deletes every vector in the namespace before upserting.
	Wipe bool
	// FromArtifact indexes a previously saved embedding artifact
	// instead of loading, segmenting and embedding the corpus.
	FromArtifact bool
	// SaveArtifact persists the embedded cards before indexing.
	SaveArtifact bool
}

// IngestReport summarizes a completed ingestion run.
type IngestReport struct {
	SourceDocuments  int `json:"source_documents"`
	Cards            int `json:"cards"`
	UpsertedVectors  int `json:"upserted_vectors"`
	Batches          int `json:"batches"`
	TotalVectorCount int `json:"total_vector_count"`
}
