package rag

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidArgument indicates invalid chunking or client parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates the document path does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRequestFailed indicates the LLM endpoint could not be reached, answered
	// with a non-2xx status, or returned a body that could not be decoded.
	ErrRequestFailed = errors.New("llm request failed")

	// ErrNoAnswer indicates the LLM responded but no answer text could be extracted.
	ErrNoAnswer = errors.New("no answer in llm response")
)

// Diagnostic strings returned by LLMClient.Answer in place of an error.
const (
	DiagnosticNoAnswer      = "Sorry, I received a response but could not extract an answer."
	DiagnosticRequestFailed = "Sorry, I encountered an error while trying to reach the language model."
	DiagnosticUnexpected    = "Sorry, an unexpected error occurred while processing your request with the language model."
)

// Loader reasons. The %v verbs carry the underlying error.
const (
	reasonImage          = "image files are not supported: OCR is disabled"
	reasonPDFNoText      = "no selectable text found in PDF, it may be a scanned or image-only document: OCR is disabled"
	reasonPDFUnavailable = "cannot process PDF files: no PDF text extractor is configured, OCR is disabled"
	reasonPDFError       = "error processing PDF: %v, OCR is disabled"
	reasonUnknownType    = "cannot process file type %s: %v"
)

var reasonPrefixes = []string{
	reasonImage,
	reasonPDFNoText,
	reasonPDFUnavailable,
	"error processing PDF: ",
	"cannot process file type ",
}

func diagnostic(reason string) string {
	return "[" + reason + "]"
}

// IsDiagnostic reports whether s is a sentinel returned by the loader or the
// LLM client rather than real content.
func IsDiagnostic(s string) bool {
	switch s {
	case DiagnosticNoAnswer, DiagnosticRequestFailed, DiagnosticUnexpected:
		return true
	}
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return false
	}
	inner := s[1 : len(s)-1]
	for _, p := range reasonPrefixes {
		if strings.HasPrefix(inner, p) {
			return true
		}
	}
	return false
}
