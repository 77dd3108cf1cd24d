// Package installer provisions a host for running frigate with a
// MemryX accelerator: Docker Engine from the official apt repository,
// the MemryX driver stack pinned to the supported series, the frigate
// source checkout, and docker daemon recovery.
//
// # Flows
//
// Each flow is a fixed sequence of privileged steps streamed through a
// LineFunc so a UI can show progress as apt produces it:
//
//	in := installer.New(installer.DefaultConfig(), logger)
//	in.SetSudoPassword(password)
//	defer in.ClearSudoPassword()
//
//	err := in.InstallDocker(ctx, func(line string) {
//		fmt.Println(line)
//	})
//
// Flows change system state and never overlap: a second flow requested
// while one runs returns a BusyError naming both operations. A failing
// step aborts the flow with an InstallError that wraps the StepError
// and points at the manual installation guide.
//
// # Privilege handling
//
// Every mutating command runs through sudo. When a password is stored
// with SetSudoPassword it is passed on sudo's stdin via -S and held
// only in memory; without one, sudo must already be authorized through
// a NOPASSWD rule or a cached ticket. Files under /etc are written by
// staging a temp file and moving it into place with sudo.
//
// # Checks
//
// CheckPrerequisites probes the host read-only: the git and docker
// binaries, daemon reachability, the installed MemryX package versions
// against the supported series, and the /dev/memx* device nodes.
// FormatPrerequisiteReport renders the result for terminal output
// with a fix hint for everything that is missing.
package installer
