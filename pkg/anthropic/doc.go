// Package anthropic defines the inbound wire protocol for the gateway: the
// Anthropic Messages API request and response shapes, the content-block sum
// type, the streaming event payloads, and the error taxonomy.
//
// Content blocks are modeled as a closed interface so every consumer (the
// request normalizer, the response denormalizer, the token estimator) handles
// each variant explicitly in a type switch.
package anthropic
