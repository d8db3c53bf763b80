//go:build !windows

package install

import "errors"

var errUnsupported = errors.New("service registration requires a Windows service control manager")

// Service is not available outside Windows.
func Service(_ Options) error {
	return errUnsupported
}

// Remove is not available outside Windows.
func Remove(_ string) error {
	return errUnsupported
}
