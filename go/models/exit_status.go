package models

import "fmt"

// ExitStatus is returned as an error when the guest terminates itself.
type ExitStatus int

func (e ExitStatus) Error() string {
	return fmt.Sprintf("exit %d", e)
}
