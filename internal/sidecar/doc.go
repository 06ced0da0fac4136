// Package sidecar supervises the backend service that runs next to the
// desktop shell.
//
// During application setup the Supervisor picks one of two launch paths:
//
//	bundled      <resolved node> src/index.js   in <resolved service-dist>
//	development  node (from PATH) src/index.js  in <exe dir>/../../../service
//
// Both receive DATABASE_PATH=<app data dir>/dev.sqlite3 and PORT=3001 on
// top of the shell's own environment. Bundled output is captured into the
// log; development output goes straight to the terminal.
//
// When neither path is available the shell runs without a backend. When a
// path is chosen but the spawn fails, Setup returns ErrSpawnFailed and the
// application does not start.
//
// On window close, CloseRequested kills the sidecar once and returns.
//
// Example usage:
//
//	sup := sidecar.New(h, sidecar.WithLogger(log))
//	h.OnSetup(sup.Setup)
//	h.OnWindowEvent(func(ev host.WindowEvent) {
//	    if ev.Kind == host.CloseRequested {
//	        sup.CloseRequested()
//	    }
//	})
package sidecar
