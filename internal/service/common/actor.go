package common

import (
	"fmt"
	"os"
	"os/user"
)

// Actor identifies who produced a release, for the audit trail in manifests.
type Actor struct {
	// Hostname is the machine where the release was produced.
	Hostname string
	// Username is the system user who ran the pipeline.
	Username string
}

// DetectActor gathers host and user information for the audit trail.
func DetectActor() (*Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
