// Command ingestd indexes documents from a storage backend into a vector
// store, either as a one-shot run or as a polling daemon.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gdrive-assistant/gdrive-assistant/internal/debug"
	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingestd",
		Short: "Index documents into a vector store",
		Long: `
ingestd lists the documents in the configured storage backend, extracts their
text and indexes it into a vector store collection for retrieval. All
configuration comes from the environment.
`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		DisableAutoGenTag: true,

		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			return globalInit(c.Name())
		},
	}

	cmd.AddCommand(
		newRunCommand(),
		newSearchCommand(),
		newVersionCommand(),
	)

	return cmd
}

func main() {
	debug.Log("main %#v", os.Args)
	debug.Log("ingestd %s compiled with %v on %v/%v",
		version, runtime.Version(), runtime.GOOS, runtime.GOARCH)

	ctx := createGlobalContext()
	err := newRootCommand().ExecuteContext(ctx)

	switch {
	case err == nil, errors.IsShutdown(err):
		Exit(0)
	case errors.IsFatal(err):
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		Exit(1)
	default:
		_, _ = fmt.Fprintf(os.Stderr, "%+v\n", err)
		Exit(1)
	}
}

// Exit terminates the process with the given exit code.
func Exit(code int) {
	debug.Log("exiting with status code %d", code)
	os.Exit(code)
}
