// Command dozepool manages pools: the top-level namespaces backing dozefs
// datasets.
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
	"github.com/dozefs/dozefs/pkg/zpool"
)

type app struct {
	cfgFile string
	root    *dataset.Root
}

func main() {
	app := &app{}
	if err := app.rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dozepool: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dozepool",
		Short:         "manage dozefs pools",
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

	cmd.AddCommand(a.createCmd(), a.destroyCmd(), a.historyCmd(), a.listCmd())
	return cmd
}

func (a *app) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <pool> <disk>",
		Short: "create a pool in the given directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := zpool.Create(a.root, args[0], args[1])
			if err != nil {
				return err
			}
			argv := append([]string{"dozepool"}, os.Args[1:]...)
			return history.Append(pool, argv, time.Time{}, "", "")
		},
	}
}

func (a *app) destroyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <pool>",
		Short: "destroy a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return zpool.Destroy(a.root, args[0])
		},
	}
}

func (a *app) historyCmd() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "history [pool ...]",
		Short: "display pool command history",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := zpool.History(a.root, args, long)
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Println(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&long, "long", "l", false, "show log records in long format")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var scriptable bool
	headers := "name,size,alloc,free,cap,health,altroot"
	cmd := &cobra.Command{
		Use:   "list [pool]",
		Short: "list pools and properties",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			out, err := zpool.List(a.root, name, table.ParseFields(headers), scriptable)
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Println(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&scriptable, "scriptable", "H", false, "scripted mode (no headers, tab-delimited)")
	cmd.Flags().StringVarP(&headers, "fields", "o", headers, "comma-separated list of properties")
	return cmd
}
