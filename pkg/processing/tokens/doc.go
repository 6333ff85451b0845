// Package tokens approximates input token counts for inbound requests. One
// shared sub-word encoder serves all models; the count is intentionally an
// estimate, not a reproduction of the backend tokenizer.
package tokens
