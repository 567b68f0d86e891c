package commands

import (
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// CacheCmd inspects the local payload cache
var CacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local payload cache",
	Long: `Fetched payloads are stored under their request key, e.g.
POPULATION/AQUALAB/*/*/*/*/2024-01-01/2024-01-31, until cleared.

Examples:
  ogdviz cache ls
  ogdviz cache clear`,
}

var cacheLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cached payloads",
	RunE:  runCacheLs,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached payload",
	RunE:  runCacheClear,
}

func init() {
	CacheCmd.AddCommand(cacheLsCmd)
	CacheCmd.AddCommand(cacheClearCmd)
}

func runCacheLs(cmd *cobra.Command, args []string) error {
	results, err := openCache()
	if err != nil {
		return err
	}
	defer results.Close()

	entries, err := results.Entries(cmd.Context())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		pterm.Info.Println("Cache is empty")
		return nil
	}

	data := pterm.TableData{{"Key", "Size", "Fetched"}}
	total := 0
	for _, e := range entries {
		total += e.Size
		data = append(data, []string{
			e.Key,
			strconv.Itoa(e.Size),
			e.FetchedAt.Local().Format(time.DateTime),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Info.Printfln("%d entries, %d bytes", len(entries), total)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	results, err := openCache()
	if err != nil {
		return err
	}
	defer results.Close()

	if err := results.Clear(cmd.Context()); err != nil {
		return err
	}
	pterm.Success.Println("Cache cleared")
	return nil
}
