// Package process manages the lifecycle of a single child process.
//
// It is the primitive behind the shell's sidecar: spawn once, kill once.
//
// Features:
//   - Spawn with extra environment, working directory and arguments
//   - Child output either inherited or captured line-by-line into the logger
//   - Single best-effort kill of the child's process group (unix)
//   - A reaper goroutine so exited children never linger as zombies
//   - Unique launch ID per manager for log correlation
//
// There is no restart, no health checking and no graceful-stop escalation.
//
// Example usage:
//
//	mgr := process.NewManager(process.Config{
//	    Name:    "sidecar",
//	    Binary:  "/opt/taskriot/node",
//	    Args:    []string{"src/index.js"},
//	    Env:     []string{"PORT=3001"},
//	    WorkDir: "/opt/taskriot/service-dist",
//	})
//
//	if err := mgr.Start(ctx); err != nil {
//	    return err
//	}
//	defer mgr.Kill()
package process
