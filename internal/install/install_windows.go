//go:build windows

package install

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows/svc/eventlog"
	"golang.org/x/sys/windows/svc/mgr"
)

// Service registers the current executable with the SCM under opts.Name.
func Service(opts Options) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}

	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connect to service manager: %w", err)
	}
	defer m.Disconnect()

	if s, err := m.OpenService(opts.Name); err == nil {
		s.Close()
		return fmt.Errorf("service %q already exists", opts.Name)
	}

	cfg := mgr.Config{
		DisplayName:  opts.DisplayName,
		Description:  opts.Description,
		StartType:    mgr.StartManual,
		Dependencies: opts.Dependencies,
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = opts.Name
	}
	if opts.AutoStart {
		cfg.StartType = mgr.StartAutomatic
	}

	s, err := m.CreateService(opts.Name, exe, cfg, opts.RunArgs...)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	defer s.Close()

	err = eventlog.InstallAsEventCreate(opts.Name, eventlog.Error|eventlog.Warning|eventlog.Info)
	if err != nil {
		// Roll back so a failed install leaves nothing behind.
		_ = s.Delete()
		return fmt.Errorf("register event log source: %w", err)
	}
	return nil
}

// Remove unregisters the service and its event log source.
func Remove(name string) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connect to service manager: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(name)
	if err != nil {
		return fmt.Errorf("service %q is not installed", name)
	}
	defer s.Close()

	if err := s.Delete(); err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if err := eventlog.Remove(name); err != nil {
		return fmt.Errorf("remove event log source: %w", err)
	}
	return nil
}
