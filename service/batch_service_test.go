package service

import (
	"bytes"
	"context"
	"testing"

	"compliance-backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFile(t *testing.T) {
	s := NewBatchService(BatchWithParams(config.Analysis{MaxFileSize: 100}))

	tests := []struct {
		name    string
		file    BatchFile
		wantErr string
	}{
		{
			name: "allowed pdf",
			file: BatchFile{Filename: "contract.pdf", MimeType: "application/pdf", Data: []byte("x")},
		},
		{
			name: "text type prefix allowed",
			file: BatchFile{Filename: "notes.md", MimeType: "text/markdown", Data: []byte("x")},
		},
		{
			name: "mime inferred from extension",
			file: BatchFile{Filename: "contract.docx", Data: []byte("x")},
		},
		{
			name:    "oversized file",
			file:    BatchFile{Filename: "big.pdf", MimeType: "application/pdf", Data: bytes.Repeat([]byte("a"), 101)},
			wantErr: "exceeds maximum size",
		},
		{
			name:    "executable rejected",
			file:    BatchFile{Filename: "malware.exe", MimeType: "application/x-msdownload", Data: []byte("x")},
			wantErr: "unsupported file type",
		},
		{
			name:    "unknown extension without mime rejected",
			file:    BatchFile{Filename: "data.bin", Data: []byte("x")},
			wantErr: "unsupported file type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.validateFile(tt.file)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

// The service under test has no storage or repositories wired, so a file
// that reaches storage would panic. Invalid files must fail per-file before
// any storage I/O.
func TestAnalyzeBatchRejectsInvalidFilesBeforeStorage(t *testing.T) {
	s := NewBatchService(BatchWithParams(config.DefaultAnalysis()))

	files := []BatchFile{
		{Filename: "huge.pdf", MimeType: "application/pdf", Data: bytes.Repeat([]byte("a"), int(11<<20))},
		{Filename: "tool.exe", MimeType: "application/x-msdownload", Data: []byte("MZ")},
	}

	result, err := s.AnalyzeBatch(context.Background(), files, []string{"GDPR"})

	require.NoError(t, err)
	require.Len(t, result.Results, 2)
	assert.False(t, result.Results[0].Success)
	assert.Contains(t, result.Results[0].Error, "exceeds maximum size")
	assert.False(t, result.Results[1].Success)
	assert.Contains(t, result.Results[1].Error, "unsupported file type")
	assert.Equal(t, 2, result.Metrics.Failed)
}

func TestAnalyzeBatchEnforcesFileLimit(t *testing.T) {
	s := NewBatchService(BatchWithParams(config.Analysis{MaxBatchFiles: 2, BatchWorkers: 1, MaxFileSize: 1 << 20}))

	files := []BatchFile{
		{Filename: "a.txt", MimeType: "text/plain", Data: []byte("a")},
		{Filename: "b.txt", MimeType: "text/plain", Data: []byte("b")},
		{Filename: "c.txt", MimeType: "text/plain", Data: []byte("c")},
	}

	_, err := s.AnalyzeBatch(context.Background(), files, []string{"GDPR"})

	assert.ErrorIs(t, err, ErrTooManyFiles)
}
