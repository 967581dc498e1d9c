package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/segtrain/segtrain/pkg/components"
	"github.com/segtrain/segtrain/pkg/config"
	"github.com/segtrain/segtrain/pkg/registry"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	var (
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate an experiment document",
		Long: `Validate an experiment document without running it.

This command checks:
  - YAML syntax validity
  - Reference interpolation (missing paths, cyclic references)
  - That every _target_ names a registered component factory`,
		Example: `  # Validate a training document
  segtrain validate train.yaml

  # Re-validate on every change
  segtrain validate train.yaml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			reg := components.NewRegistry()

			if err := validateDocument(path, reg); err != nil {
				if !watch {
					return err
				}
				log.Error().Err(err).Str("document", path).Msg("Validation failed")
			} else {
				fmt.Printf("✓ %s is valid\n", path)
			}

			if !watch {
				return nil
			}
			return watchDocument(cmd, path, reg)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-validate whenever the document changes")

	return cmd
}

func validateDocument(path string, reg *registry.Registry) error {
	doc, err := config.Load(path)
	if err != nil {
		return err
	}

	resolved, err := doc.Resolve()
	if err != nil {
		return err
	}

	var unknown []string
	for _, target := range collectTargets(resolved) {
		if !reg.Has(target) {
			unknown = append(unknown, target)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("document references unregistered targets: %v", unknown)
	}

	return nil
}

// collectTargets walks the resolved tree and gathers every _target_ value.
func collectTargets(v any) []string {
	var targets []string
	switch t := v.(type) {
	case config.Node:
		targets = collectNodeTargets(t, targets)
	case map[string]any:
		targets = collectNodeTargets(t, targets)
	case []any:
		for _, item := range t {
			targets = append(targets, collectTargets(item)...)
		}
	}
	return targets
}

func collectNodeTargets(n map[string]any, targets []string) []string {
	if target, ok := n[registry.TargetKey].(string); ok {
		targets = append(targets, target)
	}
	for _, v := range n {
		targets = append(targets, collectTargets(v)...)
	}
	return targets
}

// watchDocument blocks re-validating path until the context is cancelled.
func watchDocument(cmd *cobra.Command, path string, reg *registry.Registry) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	log.Info().Str("document", path).Msg("Watching for changes")

	// Debounce validation runs; editors often fire several events per save.
	var revalidate *time.Timer
	debounce := 300 * time.Millisecond

	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				log.Debug().
					Str("file", event.Name).
					Str("op", event.Op.String()).
					Msg("Document changed")

				if revalidate != nil {
					revalidate.Stop()
				}
				revalidate = time.AfterFunc(debounce, func() {
					if err := validateDocument(path, reg); err != nil {
						log.Error().Err(err).Str("document", path).Msg("Validation failed")
					} else {
						log.Info().Str("document", path).Msg("Document is valid")
					}
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Watcher error")
		}
	}
}
