// Package errors provides structured, actionable startup errors for easel.
//
// Each error has a unique code (e.g., "E101") that maps to a short message,
// a detailed explanation, and a fix suggestion. Startup failures are the only
// errors that reach the process boundary, so this is where they get their
// terminal formatting.
//
// Usage:
//
//	err := errors.New("E101").
//	    WithDetailf("port %d is already in use", 8000).
//	    Wrap(bindErr)
//
//	errors.PrintError(err)
//	// Output:
//	// ERROR E101: Could not bind the listening port
//	//
//	//   port 8000 is already in use
//	//
//	//   Hint: Pick a different port with --port, or stop the process
//	//   holding this one.
package errors
