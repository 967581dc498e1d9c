package backend

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/segtrain/segtrain/pkg/experiment"
)

// Options configures a runner.
type Options struct {
	// Logger receives runner progress output.
	Logger zerolog.Logger

	// RunDir is where the runner may write artifacts (manifests,
	// checkpoints). Required by the exec runner.
	RunDir string

	// Command is the external trainer invocation for the exec runner.
	// The manifest path is appended as the final argument.
	Command []string

	// EpochInterval is the simulated epoch duration of the dryrun
	// runner. Zero means no delay.
	EpochInterval time.Duration
}

// Open returns the runner registered under name.
func Open(name string, opts Options) (experiment.Runner, error) {
	switch name {
	case "dryrun":
		return NewDryRun(opts), nil
	case "exec":
		return NewExec(opts)
	default:
		return nil, fmt.Errorf("unknown backend %q (available: %v)", name, Names())
	}
}

// Names returns the available backend names in sorted order.
func Names() []string {
	names := []string{"dryrun", "exec"}
	sort.Strings(names)
	return names
}
