package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobValidate(t *testing.T) {
	j := &Job{FilePath: "/src/a.go", Language: "go"}
	assert.NoError(t, j.Validate())

	empty := &Job{}
	assert.Error(t, empty.Validate())
}

func TestJobEncodeDecode(t *testing.T) {
	j := &Job{
		FilePath:    "/src/a.cpp",
		Language:    "cpp",
		CompileArgs: []string{"-std=c++17", "-I/usr/include"},
	}

	data, err := j.Encode()
	require.NoError(t, err)

	got, err := DecodeJob(data)
	require.NoError(t, err)
	assert.Equal(t, j, got)
}

func TestBatchEncodeDecode(t *testing.T) {
	b := &ResultBatch{Slot: 3, ProducedAt: time.Now().UTC().Truncate(time.Second)}
	b.AddFile(FileRecord{FilePath: "/src/a.go", LineCount: 42})
	b.AddError(ErrorRecord{Message: "bad token", FilePath: "/src/b.go", Line: 7, Col: 12})

	data, err := b.Encode()
	require.NoError(t, err)

	got, err := DecodeBatch(data)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestDecodeJobRejectsGarbage(t *testing.T) {
	_, err := DecodeJob([]byte("not json"))
	assert.Error(t, err)
}
