// Package host models the desktop application framework the shell runs in.
//
// It provides the framework's path API and its lifecycle:
//
//   - ResourceDir: where bundled resources were installed
//   - AppDataDir: the per-user data directory for the application identifier
//   - Executable: the running binary, symlinks resolved
//   - OnSetup / OnWindowEvent / Run / CloseWindow: setup before the window
//     is shown, a single close-requested event when it goes away
//
// Platform conventions:
//
//	             resources                         app data
//	darwin       <exe>/../Resources                ~/Library/Application Support/<id>
//	windows      <exe dir>                         %APPDATA%\<id>
//	linux        $APPDIR/usr/lib/<product>,        $XDG_DATA_HOME/<id> or
//	             /usr/lib/<product> (exe in        ~/.local/share/<id>
//	             /usr/bin), or <exe dir>
//
// Both directories can be overridden through Config; the resource directory
// also through $TASKRIOT_RESOURCE_DIR.
package host
