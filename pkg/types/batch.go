package types

import (
	"encoding/json"
	"time"
)

// FileRecord is the per-file output of the indexing payload.
type FileRecord struct {
	FilePath    string `json:"file_path"`
	ContentHash string `json:"content_hash,omitempty"` // hex SHA-256
	SizeBytes   int64  `json:"size_bytes,omitempty"`
	LineCount   int    `json:"line_count,omitempty"`
	SymbolCount int    `json:"symbol_count,omitempty"`
}

// ErrorRecord is a structured error embedded in a result batch. Crashed
// files and missing-executable conditions surface through these records
// rather than through the orchestrator's lifecycle signal.
type ErrorRecord struct {
	Message  string `json:"message"`
	FilePath string `json:"file_path"`
	Line     int    `json:"line,omitempty"`
	Col      int    `json:"col,omitempty"`
	Fatal    bool   `json:"fatal,omitempty"`
	Indexed  bool   `json:"indexed,omitempty"`
}

// ResultBatch is a completed, self-contained unit of output data produced
// by one worker slot for a contiguous run of jobs, plus any embedded error
// records. A batch is inserted into the collector at most once, fully
// formed.
type ResultBatch struct {
	Slot       int           `json:"slot"`
	Files      []FileRecord  `json:"files,omitempty"`
	Errors     []ErrorRecord `json:"errors,omitempty"`
	ProducedAt time.Time     `json:"produced_at"`
}

// AddFile appends a file record to the batch.
func (b *ResultBatch) AddFile(f FileRecord) {
	b.Files = append(b.Files, f)
}

// AddError appends an error record to the batch.
func (b *ResultBatch) AddError(e ErrorRecord) {
	b.Errors = append(b.Errors, e)
}

// Encode serializes the batch for transport over the channel layer.
func (b *ResultBatch) Encode() ([]byte, error) {
	return json.Marshal(b)
}

// DecodeBatch deserializes a batch produced by Encode.
func DecodeBatch(data []byte) (*ResultBatch, error) {
	var b ResultBatch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
