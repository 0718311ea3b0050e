// Package source normalises tabular and miniSEED input into a
// waveform.Waveform.
//
// The input format is a tagged variant resolved once at this boundary, either
// explicitly or from a file extension; each variant implements the same Load
// contract and reports problems as *FormatError or *AmbiguousTraceError.
package source
