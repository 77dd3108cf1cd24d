// Package urls collects the documentation links the tools print in
// hints and failure messages.
//
// Every link lives here as a named constant, so when a page moves the
// fix is one line instead of a grep across every troubleshooting
// string:
//
//	fmt.Printf("See %s for the full camera guide.\n", urls.FrigateCameraSetup)
package urls
