// Package interp evaluates riptide programs.
//
// A [Runtime] owns the state shared by every fiber: the global frame, the
// context variable stacks, the process table and the builtins. Programs run
// in the root fiber through [Runtime.Execute].
//
// # Fibers
//
// Fibers are goroutines that take turns holding a single baton. A fiber
// gives up the baton only where it would block: receiving from an empty
// stream, sending to a full one, sleeping, waiting for a process, and
// joining pipeline stages. Code between those points runs without
// interleaving, and a fiber started by spawn runs only once its parent
// suspends.
//
// # Pipelines
//
// A pipeline of several calls runs each call in its own fiber, connected by
// bounded [Stream] values. A stage that runs out of input or loses its
// reader ends normally. The first stage to fail cancels the others, and its
// exception is raised once they have all finished.
//
// # Name resolution
//
// A named call resolves its name against the lexical frames, then the
// builtins, then the executables on the PATH held in @environment.
// External commands run in their own process group with @cwd as the working
// directory and receive the string form of their arguments.
package interp
