package common

// Misuse reports a caller contract violation such as initialising a render command twice.
// Debug builds panic with msg. Release builds return so the caller can drop the offending call;
// callers are expected to log msg before calling Misuse.
//
// Parameters:
//   - msg: the violation, formatted as "pkg: message"
func Misuse(msg string) {
	if DebugAssertions {
		panic(msg)
	}
}
