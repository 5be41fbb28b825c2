// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - VectorIndex: Passage storage and brute-force similarity search
//   - EmbeddingService: Generates vector embeddings for passages and queries
//   - Normaliser: Transforms raw documentation files into documents
//   - PostProcessor: Splits documents into fingerprinted chunks
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Language model operations. Without it, answering and
//     explanation are disabled; retrieval and validation still work.
//   - PromptStore: Customisable prompt templates. Defaults are used without it.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
