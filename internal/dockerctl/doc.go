// Package dockerctl manages the Frigate container lifecycle via the
// docker CLI.
//
// It covers building the image from a Frigate source checkout, creating
// and starting the container with the MemryX device passed through, and
// querying container state and logs. All docker invocations go through
// one Runner so timeouts, cancellation and error shaping behave the
// same everywhere.
//
// # Runner
//
// Runner executes docker via os/exec. Long commands (docker build)
// stream output line by line into a callback while also capturing it;
// quick commands run buffered:
//
//	runner := dockerctl.NewRunner(dockerctl.DefaultConfig(), logger)
//	err := runner.Build(ctx, func(line string) {
//	    fmt.Println(line)
//	})
//
// Cancelling the context sends the docker process SIGTERM and escalates
// to SIGKILL after a bounded wait, so a half-finished build does not
// linger. Failures carry the subcommand, exit code and stderr in a
// CommandError; deadline overruns unwrap to TimeoutError.
//
// # Lifecycle operations
//
// Build, Run, Start, Stop, Restart and Remove map directly onto the
// corresponding docker commands against the fixed container name. Up
// and Rebuild compose them:
//
//	action, err := runner.Up(ctx, onLine)   // build if needed, then create or start
//	err = runner.Rebuild(ctx, onLine)       // remove, build, create fresh
//
// Only one lifecycle operation may run at a time. A second request
// fails immediately with a BusyError naming the operation in flight.
// Stop is exempt from the gate so a stuck build or start can always be
// interrupted.
//
// # State and logs
//
// ContainerExists, ContainerRunning and ImageExists query docker with
// name filters and match names exactly, line by line; Status bundles
// them with a daemon reachability check into one snapshot for status
// displays. Logs fetches a bounded tail, and FollowLogs polls it,
// emitting only appended output:
//
//	err := runner.FollowLogs(ctx, 200, func(chunk string, reset bool) {
//	    if reset {
//	        view.SetContent(chunk)
//	        return
//	    }
//	    view.Append(chunk)
//	})
package dockerctl
