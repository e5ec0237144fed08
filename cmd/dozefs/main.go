// Command dozefs manages datasets: filesystems, snapshots, properties, and
// send/receive streams.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dozefs/dozefs/internal/logger"
	"github.com/dozefs/dozefs/pkg/config"
	"github.com/dozefs/dozefs/pkg/dataset"
	"github.com/dozefs/dozefs/pkg/history"
	"github.com/dozefs/dozefs/pkg/table"
	"github.com/dozefs/dozefs/pkg/zfs"
)

type app struct {
	cfgFile string
	root    *dataset.Root
}

func main() {
	app := &app{}
	if err := app.rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dozefs: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dozefs",
		Short:         "manage dozefs datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			logger.Init(cfg.Logging.Level, cfg.Logging.Format)
			a.root = dataset.NewRoot(cfg.Root)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file path")

	cmd.AddCommand(
		a.cloneCmd(), a.createCmd(), a.destroyCmd(), a.diffCmd(), a.getCmd(),
		a.inheritCmd(), a.listCmd(), a.promoteCmd(), a.receiveCmd(),
		a.renameCmd(), a.rollbackCmd(), a.sendCmd(), a.setCmd(), a.snapshotCmd(),
	)
	return cmd
}

// logHistory appends the invocation to each distinct pool affected by a
// mutating command.
func (a *app) logHistory(refs ...dataset.Ref) error {
	argv := append([]string{"dozefs"}, os.Args[1:]...)
	seen := map[string]bool{}
	for _, ref := range refs {
		pool := ref.Pool()
		if seen[pool.Name()] {
			continue
		}
		seen[pool.Name()] = true
		if err := history.Append(pool, argv, time.Time{}, "", ""); err != nil {
			return err
		}
	}
	return nil
}

func printIfAny(out string) {
	if out != "" {
		fmt.Println(out)
	}
}

func parseAssignments(raw []string) ([]zfs.PropertyAssignment, error) {
	props := make([]zfs.PropertyAssignment, 0, len(raw))
	for _, s := range raw {
		p, err := zfs.ParseAssignment(s)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, nil
}

func (a *app) cloneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clone <snapshot> <filesystem>",
		Short: "turn a snapshot into a filesystem with a new name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := zfs.Clone(a.root, args[0], args[1])
			if err != nil {
				return err
			}
			return a.logHistory(ref)
		},
	}
}

func (a *app) createCmd() *cobra.Command {
	var createParents bool
	var propFlags []string
	cmd := &cobra.Command{
		Use:   "create <filesystem>",
		Short: "create a filesystem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := parseAssignments(propFlags)
			if err != nil {
				return err
			}
			ref, err := zfs.Create(a.root, args[0], createParents, props)
			if err != nil {
				return err
			}
			return a.logHistory(ref)
		},
	}
	cmd.Flags().BoolVarP(&createParents, "parents", "p", false, "create missing parent filesystems")
	cmd.Flags().StringArrayVarP(&propFlags, "option", "o", nil, "set the specified property (property=value)")
	return cmd
}

func (a *app) destroyCmd() *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "destroy <filesystem>",
		Short: "destroy a filesystem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := zfs.Destroy(a.root, args[0], recursive)
			if err != nil {
				return err
			}
			return a.logHistory(ref)
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "destroy child filesystems")
	return cmd
}

func (a *app) diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <snapshot> [snapshot|filesystem]",
		Short: "compare a snapshot against a snapshot or filesystem",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			other := ""
			if len(args) == 2 {
				other = args[1]
			}
			out, err := zfs.Diff(a.root, args[0], other)
			if err != nil {
				return err
			}
			printIfAny(out)
			return nil
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	opts := zfs.DefaultGetOptions()
	headers := "all"
	types := "filesystem"
	sources := "local,inherited"
	cmd := &cobra.Command{
		Use:   "get <all | property[,property...]> <filesystem|snapshot> ...",
		Short: "get dataset properties",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Headers = table.ParseFields(headers)
			opts.Types = table.ParseFields(types)
			opts.Sources = table.ParseFields(sources)
			out, err := zfs.Get(a.root, table.ParseFields(args[0]), args[1:], opts)
			if err != nil {
				return err
			}
			printIfAny(out)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&opts.Recursive, "recursive", "r", false, "display all children")
	cmd.Flags().IntVarP(&opts.MaxDepth, "depth", "d", 0, "number of child generations to display")
	cmd.Flags().BoolVarP(&opts.Scriptable, "scriptable", "H", false, "scripted mode (no headers, tab-delimited)")
	cmd.Flags().StringVarP(&headers, "fields", "o", "all", "comma-separated list of fields (name, property, value, source)")
	cmd.Flags().StringVarP(&types, "type", "t", "filesystem", "comma-separated list of types (all, filesystem, snapshot)")
	cmd.Flags().StringVarP(&sources, "source", "s", "local,inherited", "comma-separated list of sources (local, inherited)")
	cmd.MarkFlagsMutuallyExclusive("recursive", "depth")
	return cmd
}

func (a *app) inheritCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inherit <property> <filesystem|snapshot> ...",
		Short: "unset a local property from datasets",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := zfs.Inherit(a.root, args[0], args[1:])
			if err != nil {
				return err
			}
			return a.logHistory(refs...)
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	opts := zfs.DefaultListOptions()
	headers := "name,used,available,refer,mountpoint"
	types := "filesystem"
	cmd := &cobra.Command{
		Use:   "list [filesystem|snapshot ...]",
		Short: "list datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Headers = table.ParseFields(headers)
			opts.Types = table.ParseFields(types)
			out, err := zfs.List(a.root, args, opts)
			if err != nil {
				return err
			}
			printIfAny(out)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&opts.Recursive, "recursive", "r", false, "display all children")
	cmd.Flags().IntVarP(&opts.MaxDepth, "depth", "d", 0, "number of child generations to display")
	cmd.Flags().BoolVarP(&opts.Scriptable, "scriptable", "H", false, "scripted mode (no headers, tab-delimited)")
	cmd.Flags().StringVarP(&headers, "fields", "o", headers, "comma-separated list of properties")
	cmd.Flags().StringVarP(&types, "type", "t", "filesystem", "comma-separated list of types (all, filesystem, snapshot)")
	cmd.Flags().StringArrayVarP(&opts.SortAsc, "sort", "s", nil, "sort by property (ascending)")
	cmd.Flags().StringArrayVarP(&opts.SortDesc, "sort-descending", "S", nil, "sort by property (descending)")
	cmd.MarkFlagsMutuallyExclusive("recursive", "depth")
	return cmd
}

func (a *app) promoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <clone-filesystem>",
		Short: "turn a cloned filesystem into a standalone filesystem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := zfs.Promote(a.root, args[0])
			if err != nil {
				return err
			}
			return a.logHistory(ref)
		},
	}
}

func (a *app) receiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "receive <filesystem>",
		Short: "create a new filesystem from a send stream on stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := zfs.Receive(a.root, args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			return a.logHistory(ref)
		},
	}
}

func (a *app) renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <filesystem|snapshot> <filesystem|snapshot>",
		Short: "move or rename a dataset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := zfs.Rename(a.root, args[0], args[1])
			if err != nil {
				return err
			}
			return a.logHistory(ref)
		},
	}
}

func (a *app) rollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <snapshot>",
		Short: "replace a filesystem with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := zfs.Rollback(a.root, args[0])
			if err != nil {
				return err
			}
			return a.logHistory(ref)
		},
	}
}

func (a *app) sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <snapshot>",
		Short: "serialize a snapshot into a data stream on stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return zfs.Send(a.root, args[0], cmd.OutOrStdout())
		},
	}
}

func (a *app) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <property=value> <filesystem|snapshot> ...",
		Short: "set a property value for datasets",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := zfs.Set(a.root, args[0], args[1:])
			if err != nil {
				return err
			}
			return a.logHistory(refs...)
		},
	}
}

func (a *app) snapshotCmd() *cobra.Command {
	var propFlags []string
	cmd := &cobra.Command{
		Use:   "snapshot <filesystem@snapname> ...",
		Short: "create snapshots of filesystems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := parseAssignments(propFlags)
			if err != nil {
				return err
			}
			refs, err := zfs.Snapshot(a.root, args, props)
			if err != nil {
				return err
			}
			return a.logHistory(refs...)
		},
	}
	cmd.Flags().StringArrayVarP(&propFlags, "option", "o", nil, "set the specified property (property=value)")
	return cmd
}
