// Package generation defines the boundary between the application core and
// the LLM that analyzes articles. Callers depend on the Analyzer interface;
// the Gemini-backed implementation lives in internal/platform/gemini.
package generation
