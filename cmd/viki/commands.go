package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/hammamikhairi/viki/internal/domain"
	"github.com/hammamikhairi/viki/internal/storage"
)

const commandsUsage = `usage:
  viki commands list
  viki commands add <trigger> <path | web://url>
  viki commands remove <trigger>`

// runCommands edits the custom command file and returns the exit code.
func runCommands(store *storage.CommandStore, args []string, out io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(out, commandsUsage)
		return 2
	}

	switch args[0] {
	case "list":
		cmds, err := store.Load()
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return 1
		}
		if len(cmds) == 0 {
			fmt.Fprintf(out, "no custom commands in %s\n", store.Path())
			return 0
		}
		keys := make([]string, 0, len(cmds))
		for k := range cmds {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "%-24s %s\n", k, cmds[k])
		}
		return 0

	case "add":
		if len(args) != 3 {
			fmt.Fprintln(out, commandsUsage)
			return 2
		}
		if err := store.Add(args[1], args[2]); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "added %q\n", args[1])
		return 0

	case "remove", "rm":
		if len(args) != 2 {
			fmt.Fprintln(out, commandsUsage)
			return 2
		}
		if err := store.Remove(args[1]); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				fmt.Fprintf(out, "no command %q\n", args[1])
			} else {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			return 1
		}
		fmt.Fprintf(out, "removed %q\n", args[1])
		return 0
	}

	fmt.Fprintln(out, commandsUsage)
	return 2
}
