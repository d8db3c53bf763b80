//go:build !windows

package hostsvc

// Run executes the engine in console mode. Only Windows has a service
// manager integration; on other platforms the init system talks to the
// wrapper with signals, which RunConsole already handles.
func Run(_ string, build BuildFunc) int {
	return RunConsole(build)
}

// Interactive reports whether the process was started from a console rather
// than a service manager. Without SCM detection this is always true.
func Interactive() bool { return true }
