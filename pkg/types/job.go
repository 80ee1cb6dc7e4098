package types

import (
	"encoding/json"
	"errors"
)

// Job represents one unit of indexing work: a single source file together
// with the build context needed to index it.
type Job struct {
	// FilePath is the absolute path of the source file to index.
	FilePath string `json:"file_path"`

	// Language identifies the source language, e.g. "go" or "cpp".
	Language string `json:"language,omitempty"`

	// CompileArgs carries compiler flags for languages that need them.
	CompileArgs []string `json:"compile_args,omitempty"`
}

// Validate checks that the job can be enqueued.
func (j *Job) Validate() error {
	if j.FilePath == "" {
		return errors.New("job file path cannot be empty")
	}
	return nil
}

// Encode serializes the job for transport over the channel layer.
func (j *Job) Encode() ([]byte, error) {
	return json.Marshal(j)
}

// DecodeJob deserializes a job produced by Encode.
func DecodeJob(data []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	return &j, nil
}
