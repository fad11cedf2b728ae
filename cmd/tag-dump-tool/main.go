package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/simonhull/audiotag"
)

var (
	verbose  bool
	standard string
	backup   string
	sets     []string
	deletes  []string
	extras   []string
)

// Useful for checking what each tag standard of a file holds, and where.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tag-dump",
		Short:         "Inspect and edit the tags of SPC, VQF and TTA files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log detection, ledger and splice events")

	read := &cobra.Command{
		Use:   "read <file>...",
		Short: "Print the audio properties and every tag of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRead,
	}

	set := &cobra.Command{
		Use:   "set <file>",
		Short: "Update one tag standard",
		Args:  cobra.ExactArgs(1),
		RunE:  runSet,
	}
	set.Flags().StringVarP(&standard, "standard", "s", "", "tag standard (Native, Chunk, ID3v2, APE, ID3v1)")
	set.Flags().StringArrayVarP(&sets, "field", "f", nil, "canonical field assignment, Name=value")
	set.Flags().StringArrayVarP(&deletes, "delete", "d", nil, "canonical field to clear")
	set.Flags().StringArrayVarP(&extras, "additional", "a", nil, "additional field assignment, ID=value (empty value deletes)")
	set.Flags().StringVar(&backup, "backup", "", "keep a copy of the original with this suffix")
	_ = set.MarkFlagRequired("standard") //nolint:errcheck // Flag is defined above

	remove := &cobra.Command{
		Use:   "remove <file>",
		Short: "Remove (or reset, for native tags) one tag standard",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}
	remove.Flags().StringVarP(&standard, "standard", "s", "", "tag standard (Native, Chunk, ID3v2, APE, ID3v1)")
	remove.Flags().StringVar(&backup, "backup", "", "keep a copy of the original with this suffix")
	_ = remove.MarkFlagRequired("standard") //nolint:errcheck // Flag is defined above

	regions := &cobra.Command{
		Use:   "regions <file>",
		Short: "Print the byte ranges owned by each tag standard and the payload",
		Args:  cobra.ExactArgs(1),
		RunE:  runRegions,
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := audiotag.GetVersionInfo()
			fmt.Printf("audiotag %s (%s, built %s, %s)\n", info.Version, info.GitCommit, info.BuildTime, info.GoVersion)
		},
	}

	root.AddCommand(read, set, remove, regions, version)
	return root
}

func engine() *audiotag.Engine {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
	return audiotag.New(audiotag.WithLogger(log))
}

func runRead(cmd *cobra.Command, args []string) error {
	files, err := engine().ReadMany(cmd.Context(), args)
	if err != nil {
		return err
	}
	for i, f := range files {
		if i > 0 {
			fmt.Println()
		}
		printFile(f)
	}
	return nil
}

func printFile(f *audiotag.File) {
	fmt.Printf("%s\n", f.Path)
	fmt.Printf("  Format: %s (%d bytes)\n", f.Format, f.Size)
	fmt.Printf("  Audio:  %s, %s\n", f.Audio, f.Audio.Duration)
	if f.Audio.CompressionRatio > 0 {
		fmt.Printf("  Ratio:  %.3f\n", f.Audio.CompressionRatio)
	}

	for _, std := range f.SupportedStandards() {
		fmt.Printf("  [%s] %s\n", std, f.State(std))
		tag, ok := f.Tag(std)
		if !ok {
			continue
		}
		for field, v := range tag.Fields() {
			fmt.Printf("    %-15s %s\n", field, v)
		}
		for id, v := range tag.Additional() {
			fmt.Printf("    %-15s %s\n", "+"+id, v)
		}
		for _, p := range tag.Pictures {
			fmt.Printf("    %-15s %s\n", "picture", p)
		}
	}

	for _, w := range f.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

func runSet(cmd *cobra.Command, args []string) error {
	std, err := audiotag.ParseTagStandard(standard)
	if err != nil {
		return err
	}

	u := audiotag.NewUpdate()
	for _, kv := range sets {
		name, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("field %q: expected Name=value", kv)
		}
		f, err := audiotag.ParseField(name)
		if err != nil {
			return err
		}
		u.Set(f, v)
	}
	for _, name := range deletes {
		f, err := audiotag.ParseField(name)
		if err != nil {
			return err
		}
		u.Delete(f)
	}
	for _, kv := range extras {
		id, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("additional field %q: expected ID=value", kv)
		}
		if v == "" {
			u.DeleteAdditional(std, id)
		} else {
			u.SetAdditional(std, id, v)
		}
	}

	return engine().UpdateTag(cmd.Context(), args[0], std, u, saveOptions()...)
}

func runRemove(cmd *cobra.Command, args []string) error {
	std, err := audiotag.ParseTagStandard(standard)
	if err != nil {
		return err
	}
	return engine().RemoveTag(cmd.Context(), args[0], std, saveOptions()...)
}

func saveOptions() []audiotag.SaveOption {
	if backup == "" {
		return nil
	}
	return []audiotag.SaveOption{audiotag.WithBackup(backup)}
}

func runRegions(cmd *cobra.Command, args []string) error {
	f, err := engine().ReadAll(cmd.Context(), args[0], audiotag.WithSkipPictures())
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s, %d bytes)\n", f.Path, f.Format, f.Size)
	fmt.Printf("  payload %s\n", f.Payload)
	for _, r := range f.Regions {
		present := "absent"
		if r.Present {
			present = "present"
		}
		fmt.Printf("  %s (%s, %s)\n", r.Standard, r.Layout, present)
		for _, z := range r.Zones {
			fmt.Printf("    %-8s %s (%d bytes)\n", z.Name, z.Extent, z.Extent.Len())
		}
	}
	return nil
}
