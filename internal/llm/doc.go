// Package llm provides the language-model fallback for transaction categorization.
// It supports OpenAI and Anthropic chat APIs, with request throttling, retries
// and a per-transaction decision cache. Classification is best-effort: any
// provider or parse failure yields no decision rather than an error.
package llm
