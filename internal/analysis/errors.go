package analysis

import "errors"

// Sentinel errors for pipeline stages. Every one of these is fatal to the
// current job attempt; the pipeline collapses them into the ERROR terminal
// state with a captured message. Use errors.Is() to classify.
var (
	// ErrExtraction indicates the document bytes could not be parsed as a PDF.
	ErrExtraction = errors.New("document extraction failed")

	// ErrEncoding indicates embedding generation failed.
	ErrEncoding = errors.New("embedding generation failed")

	// ErrRetrieval indicates the precedent store was unreachable or errored.
	// Zero matches is NOT a retrieval error.
	ErrRetrieval = errors.New("precedent retrieval failed")

	// ErrGeneration indicates the generative completion call failed.
	ErrGeneration = errors.New("report generation failed")

	// ErrParse indicates the generative output contained no valid report JSON.
	ErrParse = errors.New("report parsing failed")
)
