// Package install registers and removes the wrapper as a host service. Only
// Windows has an installable service manager; other platforms get their unit
// files written by the administrator.
package install

// Options describes the service registration to create. RunArgs is the full
// argument list the service manager passes to the wrapper binary, normally a
// run invocation ending in the wrapped command.
type Options struct {
	Name         string
	DisplayName  string
	Description  string
	AutoStart    bool
	Dependencies []string
	RunArgs      []string
}
