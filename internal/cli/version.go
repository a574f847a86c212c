package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout(), short)
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")
	return cmd
}

func printVersion(w io.Writer, short bool) {
	if short {
		fmt.Fprintln(w, Version)
		return
	}
	bold := color.New(color.Bold)
	label := color.New(color.FgHiBlack)
	bold.Fprintf(w, "netfall version %s\n", Version)
	label.Fprint(w, "  commit:    ")
	fmt.Fprintln(w, Commit)
	label.Fprint(w, "  built:     ")
	fmt.Fprintln(w, Date)
	label.Fprint(w, "  builder:   ")
	fmt.Fprintln(w, BuiltBy)
	label.Fprint(w, "  go:        ")
	fmt.Fprintln(w, runtime.Version())
	label.Fprint(w, "  platform:  ")
	fmt.Fprintf(w, "%s/%s\n", runtime.GOOS, runtime.GOARCH)
}
