/*
Copyright 2019 Google LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package coordinator

import (
	"errors"
	"fmt"
)

// Status is the result of a command.
type Status string

// Command results.
const (
	StatusUnknown                   Status = "Unknown"
	StatusSuccess                   Status = "Success"
	StatusFailure                   Status = "Failure"
	StatusNoChangeNeeded            Status = "NoChangeNeeded"
	StatusJobNotFound               Status = "JobNotFound"
	StatusProcessingElementNotFound Status = "ProcessingElementNotFound"
	StatusExportNotFound            Status = "ExportNotFound"
	StatusConsistentRegionNotFound  Status = "ConsistentRegionNotFound"
	StatusTimeout                   Status = "Timeout"
)

// Errors returned to synchronous callers.
var (
	ErrJobNotFound               = errors.New("job not found")
	ErrProcessingElementNotFound = errors.New("processing element not found")
	ErrExportNotFound            = errors.New("export not found")
	ErrConsistentRegionNotFound  = errors.New("consistent region not found")
	ErrCommandFailed             = errors.New("command failed")
	ErrCommandTimeout            = errors.New("command timed out")
	ErrCommandUnknown            = errors.New("command result unknown")
)

// IsResolved returns true if the command reached a final result.
func (s Status) IsResolved() bool {
	return s != StatusUnknown
}

// Err translates the status into the error seen by synchronous callers,
// nil for Success and NoChangeNeeded. cause, when set, is wrapped.
func (s Status) Err(cause error) error {
	var err error
	switch s {
	case StatusSuccess, StatusNoChangeNeeded:
		return nil
	case StatusJobNotFound:
		err = ErrJobNotFound
	case StatusProcessingElementNotFound:
		err = ErrProcessingElementNotFound
	case StatusExportNotFound:
		err = ErrExportNotFound
	case StatusConsistentRegionNotFound:
		err = ErrConsistentRegionNotFound
	case StatusFailure:
		err = ErrCommandFailed
	case StatusTimeout:
		err = ErrCommandTimeout
	default:
		err = ErrCommandUnknown
	}
	if cause != nil && !errors.Is(cause, err) {
		return fmt.Errorf("%w: %v", err, cause)
	}
	return err
}
