// Command zfsmock is a demo/debug CLI driving the mock ZFS facade
// interactively, in the shape of the real command-line tools it mocks.
package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/k0kubun/pp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/mockzfs/zfsmock/internal/config"
	"github.com/mockzfs/zfsmock/internal/engine"
	"github.com/mockzfs/zfsmock/internal/facade/zfs"
	"github.com/mockzfs/zfsmock/internal/facade/zpool"
	"github.com/mockzfs/zfsmock/internal/i18n"
	"github.com/mockzfs/zfsmock/internal/layout"
	"github.com/mockzfs/zfsmock/internal/log"
)

func main() {
	if err := generateCommands().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func generateCommands() *cobra.Command {
	i18n.InitI18nDomain("zfsmock")

	eng := engine.New()
	zp := zpool.New(eng)
	zf := zfs.New(eng)

	var flagVerbose bool

	root := &cobra.Command{
		Use:   "zfsmock",
		Short: i18n.G("Drive an in-memory mock ZFS engine from the command line"),
		Long: i18n.G(`zfsmock is a debug and demo tool for internal/engine: it exercises the
same zpool.*/zfs.* surface a real consumer of the mocked module would,
against a single in-process Engine that starts empty on every run.`),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.SetVerboseMode(flagVerbose)
			if flagVerbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, i18n.G("issue DEBUG output"))

	root.AddCommand(
		poolCmd(zp),
		createCmd(zf),
		snapshotCmd(zf),
		cloneCmd(zf),
		destroyCmd(zf),
		renameCmd(zf),
		mountCmd(zf),
		unmountCmd(zf),
		setCmd(zf),
		getCmd(zf),
		listCmd(zf),
		holdCmd(zf),
		releaseCmd(zf),
		holdsCmd(zf),
		planCmd(),
	)
	return root
}

// diskFixture mirrors one yaml entry of a disk inventory file handed to
// `plan`, the same fixed-shape-fixture-via-yaml idiom the corpus uses for
// seeding mock state in tests.
type diskFixture struct {
	Name       string `yaml:"name"`
	VID        string `yaml:"vid"`
	PID        string `yaml:"pid"`
	Size       uint64 `yaml:"size"`
	Type       string `yaml:"type"`
	Removable  bool   `yaml:"removable"`
	SolidState bool   `yaml:"solid_state"`
}

func planCmd() *cobra.Command {
	var layoutName string
	cmd := &cobra.Command{
		Use:   "plan INVENTORY.yaml",
		Short: i18n.G("Plan a pool layout from a yaml disk inventory"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ioutil.ReadFile(args[0])
			if err != nil {
				return err
			}
			var fixtures []diskFixture
			if err := yaml.Unmarshal(b, &fixtures); err != nil {
				return fmt.Errorf(i18n.G("couldn't parse disk inventory %q: %v"), args[0], err)
			}
			disks := make([]layout.Disk, len(fixtures))
			for i, f := range fixtures {
				disks[i] = layout.Disk{
					Name: f.Name, VID: f.VID, PID: f.PID,
					Size: f.Size, Type: layout.DiskType(f.Type),
					Removable: f.Removable, SolidState: f.SolidState,
				}
			}
			l, err := layout.Plan(disks, layout.Name(layoutName))
			if err != nil {
				return err
			}
			if config.ErrorFormat == "%+v" {
				pp.Println(l)
				return nil
			}
			for _, v := range l.VDevs {
				fmt.Printf("%s\t%s\t%v\t%d\n", v.Role, v.Layout, v.Disks, v.Capacity)
			}
			fmt.Println(i18n.G("capacity:"), l.Capacity)
			return nil
		},
	}
	cmd.Flags().StringVarP(&layoutName, "layout", "l", "", i18n.G("single, mirror, or raidz2 (auto-chosen from disk count when empty)"))
	return cmd
}

func poolCmd(zp *zpool.Facade) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: i18n.G("Manage mock pools"),
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create POOL",
			Short: i18n.G("Create a new pool"),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWithErr(func(cb func(error)) { zp.Create(context.Background(), args[0], nil, cb) })
			},
		},
		&cobra.Command{
			Use:   "destroy POOL",
			Short: i18n.G("Destroy a pool and everything under it"),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWithErr(func(cb func(error)) { zp.Destroy(context.Background(), args[0], cb) })
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: i18n.G("List pools"),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				var outErr error
				zp.List(context.Background(), "", zpool.ListOpts{}, func(err error, fields []string, rows [][]string) {
					if err != nil {
						outErr = err
						return
					}
					printRows(fields, rows)
				})
				return outErr
			},
		},
		&cobra.Command{
			Use:   "status POOL",
			Short: i18n.G("Report pool status"),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var outErr error
				zp.Status(context.Background(), args[0], func(err error, status string) {
					if err != nil {
						outErr = err
						return
					}
					fmt.Println(status)
				})
				return outErr
			},
		},
	)
	return cmd
}

func createCmd(zf *zfs.Facade) *cobra.Command {
	var volume bool
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: i18n.G("Create a filesystem (or, with -V, a volume)"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if volume {
				return runWithErr(func(cb func(error)) { zf.CreateVolume(context.Background(), args[0], nil, cb) })
			}
			return runWithErr(func(cb func(error)) { zf.Create(context.Background(), args[0], cb) })
		},
	}
	cmd.Flags().BoolVarP(&volume, "volume", "V", false, i18n.G("create a volume instead of a filesystem"))
	return cmd
}

func snapshotCmd(zf *zfs.Facade) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot FS@SNAP",
		Short: i18n.G("Create a snapshot"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithErr(func(cb func(error)) { zf.Snapshot(context.Background(), args[0], cb) })
		},
	}
}

func cloneCmd(zf *zfs.Facade) *cobra.Command {
	var parents bool
	cmd := &cobra.Command{
		Use:   "clone SNAPSHOT NAME",
		Short: i18n.G("Clone a snapshot into a new filesystem or volume"),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []engine.CloneOption
			if parents {
				opts = append(opts, engine.WithParents())
			}
			return runWithErr(func(cb func(error)) { zf.Clone(context.Background(), args[0], args[1], nil, cb, opts...) })
		},
	}
	cmd.Flags().BoolVarP(&parents, "parents", "p", false, i18n.G("create missing intermediate parent filesystems"))
	return cmd
}

func destroyCmd(zf *zfs.Facade) *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "destroy NAME",
		Short: i18n.G("Destroy a dataset"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if recursive {
				return runWithErr(func(cb func(error)) { zf.DestroyAll(context.Background(), args[0], cb) })
			}
			return runWithErr(func(cb func(error)) { zf.Destroy(context.Background(), args[0], cb) })
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, i18n.G("destroy descendants too"))
	return cmd
}

func renameCmd(zf *zfs.Facade) *cobra.Command {
	return &cobra.Command{
		Use:   "rename NAME NEWNAME",
		Short: i18n.G("Rename a dataset or snapshot"),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithErr(func(cb func(error)) { zf.Rename(context.Background(), args[0], args[1], cb) })
		},
	}
}

func mountCmd(zf *zfs.Facade) *cobra.Command {
	return &cobra.Command{
		Use:   "mount NAME",
		Short: i18n.G("Mount a filesystem"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithErr(func(cb func(error)) { zf.Mount(context.Background(), args[0], cb) })
		},
	}
}

func unmountCmd(zf *zfs.Facade) *cobra.Command {
	return &cobra.Command{
		Use:   "unmount NAME",
		Short: i18n.G("Unmount a filesystem"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithErr(func(cb func(error)) { zf.Unmount(context.Background(), args[0], cb) })
		},
	}
}

func setCmd(zf *zfs.Facade) *cobra.Command {
	return &cobra.Command{
		Use:   "set NAME PROPERTY=VALUE",
		Short: i18n.G("Set a property"),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prop, value, err := splitEqual(args[1])
			if err != nil {
				return err
			}
			return runWithErr(func(cb func(error)) {
				zf.Set(context.Background(), args[0], map[string]string{prop: value}, cb)
			})
		},
	}
}

func getCmd(zf *zfs.Facade) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME PROPERTY...",
		Short: i18n.G("Get one or more properties"),
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var outErr error
			zf.Get(context.Background(), args[0], args[1:], true, func(err error, rows [][]string) {
				if err != nil {
					outErr = err
					return
				}
				printRows([]string{"NAME", "PROPERTY", "VALUE"}, rows)
			})
			return outErr
		},
	}
}

func listCmd(zf *zfs.Facade) *cobra.Command {
	var recursive bool
	var datasetType string
	cmd := &cobra.Command{
		Use:   "list [NAME]",
		Short: i18n.G("List datasets"),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			var outErr error
			opts := zfs.ListOpts{Type: datasetType, Recursive: recursive, Parseable: true}
			zf.List(context.Background(), name, opts, func(err error, fields []string, rows [][]string) {
				if err != nil {
					outErr = err
					return
				}
				printRows(fields, rows)
			})
			return outErr
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, i18n.G("recurse into descendants"))
	cmd.Flags().StringVarP(&datasetType, "type", "t", "", i18n.G("comma-separated dataset types (filesystem,volume,snapshot,all)"))
	return cmd
}

func holdCmd(zf *zfs.Facade) *cobra.Command {
	return &cobra.Command{
		Use:   "hold TAG SNAPSHOT",
		Short: i18n.G("Add a hold tag to a snapshot"),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithErr(func(cb func(error)) { zf.Hold(context.Background(), args[1], args[0], cb) })
		},
	}
}

func releaseCmd(zf *zfs.Facade) *cobra.Command {
	return &cobra.Command{
		Use:   "release TAG SNAPSHOT",
		Short: i18n.G("Remove a hold tag from a snapshot"),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithErr(func(cb func(error)) { zf.ReleaseHold(context.Background(), args[1], args[0], cb) })
		},
	}
}

func holdsCmd(zf *zfs.Facade) *cobra.Command {
	return &cobra.Command{
		Use:   "holds SNAPSHOT",
		Short: i18n.G("List hold tags on a snapshot"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var outErr error
			zf.Holds(context.Background(), args[0], func(err error, tags []string) {
				if err != nil {
					outErr = err
					return
				}
				for _, t := range tags {
					fmt.Println(t)
				}
			})
			return outErr
		},
	}
}

func runWithErr(run func(cb func(error))) error {
	var outErr error
	run(func(err error) { outErr = err })
	return outErr
}

func splitEqual(s string) (key, value string, err error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], nil
		}
	}
	return "", "", fmt.Errorf(i18n.G("%q is not in the form property=value"), s)
}

func printRows(fields []string, rows [][]string) {
	fmt.Println(joinRow(fields))
	for _, r := range rows {
		fmt.Println(joinRow(r))
	}
}

func joinRow(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += "\t"
		}
		out += f
	}
	return out
}
