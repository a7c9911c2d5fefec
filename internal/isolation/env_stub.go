//go:build !linux

package isolation

import "fmt"

type unsupportedEnvironment struct{}

// NewEnvironment returns an environment whose acquisition always fails;
// thread pinning and priority control are only implemented for Linux.
func NewEnvironment() Environment {
	return unsupportedEnvironment{}
}

func (unsupportedEnvironment) Pin(cpu int) error {
	return fmt.Errorf("processor pinning is not supported on this platform")
}

func (unsupportedEnvironment) Elevate() error {
	return fmt.Errorf("priority elevation is not supported on this platform")
}

func (unsupportedEnvironment) Restore() error {
	return nil
}
