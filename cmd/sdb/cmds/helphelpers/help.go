package helphelpers

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Prepare prepares cmd flag set for the invocation of its usage function by
// hiding flags that cobra parses on the root command but that do not apply
// to cmd.
//
// For example the launch flags are meaningless when attaching:
//
//	sdb -p 1234 --wd /tmp
//
// parses successfully, but --wd is not shown in the usage of an attach.
//
// Prepare is a destructive command, cmd can not be reused after it has been
// called.
func Prepare(cmd *cobra.Command, attach bool) {
	switch cmd.Name() {
	case "help", "log", "version":
		hideAllFlags(cmd)
	case "sdb":
		if attach {
			hideFlag(cmd, "disable-aslr")
			hideFlag(cmd, "tty")
			hideFlag(cmd, "wd")
		}
	}
}

func hideAllFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().VisitAll(func(flag *pflag.Flag) {
		flag.Hidden = true
	})
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Hidden = true
	})
}

func hideFlag(cmd *cobra.Command, name string) {
	if cmd == nil {
		return
	}
	flag := cmd.Flags().Lookup(name)
	if flag != nil {
		flag.Hidden = true
		return
	}
	hideFlag(cmd.Parent(), name)
}
