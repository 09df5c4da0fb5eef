package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// infoCmd manages the shared-info categories the recall heuristic reads
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Manage shared personal information",
	Long: `Shared info is the personal context the companion is expected to recall
(categories: basic, spiritual, challenges, interests). The recall-rate
heuristic scores sessions against the number of populated categories.`,
}

var infoSetCmd = &cobra.Command{
	Use:   "set [category] [key=value]...",
	Short: "Merge fields into a shared-info category",
	Long: `Shallow-merges the given key=value pairs into the category payload.
Existing fields not mentioned are retained.

Example:
  attune info set interests music=jazz sport=climbing`,
	Args: cobra.MinimumNArgs(2),
	RunE: setInfo,
}

var infoShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all shared-info categories",
	RunE:  showInfo,
}

func setInfo(cmd *cobra.Command, args []string) error {
	category := args[0]
	fields := make(map[string]string, len(args)-1)
	for _, pair := range args[1:] {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid field %q, expected key=value", pair)
		}
		fields[k] = v
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.SaveSharedInfo(category, fields); err != nil {
		return err
	}
	fmt.Printf("Updated %s (%d fields)\n", category, len(fields))
	return nil
}

func showInfo(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	info := a.store.GetSharedInfo()
	if len(info) == 0 {
		fmt.Println("No shared info recorded.")
		return nil
	}

	categories := make([]string, 0, len(info))
	for name := range info {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	for _, name := range categories {
		cat := info[name]
		fmt.Printf("%s (updated %s)\n", name, cat.LastUpdated.Format("2006-01-02 15:04"))

		keys := make([]string, 0, len(cat.Fields))
		for k := range cat.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %s: %s\n", k, cat.Fields[k])
		}
	}
	return nil
}
