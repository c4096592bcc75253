package utils

// ContextKey is the type used for request-scoped values set by middlewares.
type ContextKey string
