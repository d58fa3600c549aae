//go:build !oxydebug

package common

// DebugAssertions is true when the engine is built with -tags oxydebug.
const DebugAssertions = false
