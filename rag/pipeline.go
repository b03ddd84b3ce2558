package rag

import (
	"path/filepath"

	"go-rag-assistant/logger"
)

// Pipeline runs Load, Clean and Structure over a single file. Cleaner may be
// nil to chunk the extracted text as-is.
type Pipeline struct {
	Loader       *Loader
	Cleaner      *Cleaner
	Structurizer *Structurizer
}

// PipelineResult is the outcome of running a file through the pipeline.
// Unsupported documents carry a Reason and no chunks.
type PipelineResult struct {
	Source string     `json:"source"`
	Status LoadStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
	Chunks []Chunk    `json:"chunks"`
}

// Run loads path and chunks its text, labelling chunks with the file's base name.
func (p *Pipeline) Run(path string) (PipelineResult, error) {
	return p.RunAs(path, filepath.Base(path))
}

// RunAs is Run with an explicit chunk source label.
func (p *Pipeline) RunAs(path, source string) (PipelineResult, error) {
	logger.Section("Load")
	doc, err := p.Loader.LoadDocument(path)
	if err != nil {
		return PipelineResult{}, err
	}
	if !doc.OK() {
		logger.Info("%s has no usable text: %s", path, doc.Reason)
		return PipelineResult{Source: source, Status: doc.Status, Reason: doc.Reason, Chunks: []Chunk{}}, nil
	}

	chunks, err := p.ChunkText(doc.Text, source)
	if err != nil {
		return PipelineResult{}, err
	}
	return PipelineResult{Source: source, Status: StatusOK, Chunks: chunks}, nil
}

// ChunkText cleans and chunks text that is already in memory.
func (p *Pipeline) ChunkText(text, source string) ([]Chunk, error) {
	if p.Cleaner != nil {
		logger.Section("Clean")
		text = p.Cleaner.Clean(text)
	}

	logger.Section("Chunk")
	chunks, err := p.Structurizer.Chunks(text, source)
	if err != nil {
		return nil, err
	}
	logger.Debug("%s: %d chunks (size %d, overlap %d)", source, len(chunks), p.Structurizer.ChunkSize(), p.Structurizer.ChunkOverlap())
	if chunks == nil {
		chunks = []Chunk{}
	}
	return chunks, nil
}
