// Package process starts Procfile commands as local child processes and
// streams their decoded output line by line.
//
// On Unix each child leads its own process group, so a Ctrl-C typed at the
// terminal reaches only the supervisor, which relays SIGINT to every group.
//
// On Windows each child gets its own hidden console. Interrupt briefly attaches
// the supervisor to that console and raises CTRL_C_EVENT there. The attach
// fails when the child has already exited, so interrupts are best-effort.
package process
