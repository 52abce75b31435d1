package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cuemby/leech/pkg/block"
	"github.com/cuemby/leech/pkg/config"
	"github.com/cuemby/leech/pkg/leech"
	"github.com/cuemby/leech/pkg/log"
	"github.com/cuemby/leech/pkg/storage"
	"github.com/cuemby/leech/pkg/wire"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

// leechDir is the work directory created inside the target directory.
const leechDir = ".leech"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "leech",
	Short: "Leech - track CSV changes as a chain of content-addressed blocks",
	Long: `Leech tracks changes to a collection of CSV sources over time as an
append-only chain of content-addressed blocks, and produces patches that
transform a downstream relational database from any earlier state to the
current one.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Leech version %s\nCommit: %s\n", Version, Commit,
	))

	// Global flags
	rootCmd.PersistentFlags().StringP("directory", "C", ".", "Run as if started in this directory")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(patchCmd)

	blockCmd.AddCommand(blockCreateCmd)
	blockCmd.AddCommand(blockShowCmd)
	blockShowCmd.Flags().IntP("back", "n", 0, "Show the block N steps back from HEAD")

	patchCmd.AddCommand(patchCreateCmd)
	patchCmd.AddCommand(patchShowCmd)
	patchCmd.AddCommand(patchSQLCmd)
	patchCmd.AddCommand(patchAppliedCmd)
	patchCreateCmd.Flags().IntP("back", "n", 0, "Create a patch covering the last N blocks")
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
		Output:     os.Stderr,
	})
}

func workDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("directory")
	return filepath.Join(dir, leechDir)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return leech.Init(workDir(cmd))
}

// resolveRef turns a positional hash prefix or a -n walk-back count into a
// full block hash. With neither, HEAD is returned.
func resolveRef(s storage.Store, ref string, back int) (string, error) {
	if ref != "" && back > 0 {
		return "", fmt.Errorf("cannot specify both a hash prefix and -n")
	}
	if ref != "" {
		return storage.ResolveRef(s, ref)
	}
	if back > 0 {
		return walkBack(s, back)
	}
	return storage.Head(s)
}

func walkBack(s storage.Store, n int) (string, error) {
	hash, err := storage.Head(s)
	if err != nil {
		return "", err
	}
	for i := 0; i < n; i++ {
		if hash == storage.Genesis {
			return "", fmt.Errorf("only %d block(s) in chain, cannot go back %d", i, n)
		}
		b, err := block.Load(s, hash)
		if err != nil {
			return "", err
		}
		hash = b.Parent
	}
	return hash, nil
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new work directory with an example table",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := workDir(cmd)
		configPath := filepath.Join(dir, "config.toml")
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("already initialized: %s exists", configPath)
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create '%s': %w", dir, err)
		}

		exampleConfig := `[tables.example]
source = "example.csv"
header = true

[[tables.example.fields]]
name = "id"
type = "INTEGER"
primary-key = true

[[tables.example.fields]]
name = "name"
type = "TEXT"
`
		if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
			return fmt.Errorf("failed to write '%s': %w", configPath, err)
		}

		csvPath := filepath.Join(dir, "example.csv")
		if err := os.WriteFile(csvPath, []byte("id,name\n1,Alice\n2,Bob\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write '%s': %w", csvPath, err)
		}

		fmt.Printf("Initialized %s\n", dir)
		return nil
	},
}

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Manage chain blocks",
}

var blockCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new block from the current CSV state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		hash, err := leech.CreateBlock(cfg)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

var blockShowCmd = &cobra.Command{
	Use:   "show [ref]",
	Short: "Show the full contents of a block (default: HEAD)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s := storage.NewFileStore(cfg.WorkDir)

		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}
		back, _ := cmd.Flags().GetInt("back")

		hash, err := resolveRef(s, ref, back)
		if err != nil {
			return err
		}
		if hash == storage.Genesis {
			return fmt.Errorf("cannot show the genesis block")
		}

		b, err := block.Load(s, hash)
		if err != nil {
			return err
		}
		fmt.Printf("block %s\n%s\n", hash, b.Wire().String())
		return nil
	},
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List all blocks from HEAD to genesis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s := storage.NewFileStore(cfg.WorkDir)

		hash, err := storage.Head(s)
		if err != nil {
			return err
		}
		if hash == storage.Genesis {
			return fmt.Errorf("no blocks exist yet")
		}

		for hash != storage.Genesis {
			b, err := block.Load(s, hash)
			if err != nil {
				return err
			}

			tables := "no changes"
			if len(b.Payload) > 0 {
				names := make([]string, 0, len(b.Payload))
				for _, d := range b.Payload {
					names = append(names, d.Name)
				}
				tables = strings.Join(names, ", ")
			}

			fmt.Printf("block %s  %s  (%d deltas: %s)\n",
				hash, wire.FormatTimestamp(b.Created), len(b.Payload), tables)
			hash = b.Parent
		}
		return nil
	},
}

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Manage patches",
}

var patchCreateCmd = &cobra.Command{
	Use:   "create [ref]",
	Short: "Create a patch from REF (or REPORTED) to HEAD",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s := storage.NewFileStore(cfg.WorkDir)

		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}
		back, _ := cmd.Flags().GetInt("back")

		lastKnown := ""
		if ref != "" || back > 0 {
			lastKnown, err = resolveRef(s, ref, back)
			if err != nil {
				return err
			}
		}

		p, err := leech.CreatePatch(cfg, lastKnown)
		if err != nil {
			return err
		}
		fmt.Println(p.String())
		return nil
	},
}

var patchShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the contents of the stored PATCH blob",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p, err := leech.StoredPatch(cfg)
		if err != nil {
			return fmt.Errorf("no patch found, run `leech patch create` first: %w", err)
		}
		fmt.Println(p.String())
		return nil
	},
}

var patchSQLCmd = &cobra.Command{
	Use:   "sql",
	Short: "Convert the stored PATCH blob to SQL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p, err := leech.StoredPatch(cfg)
		if err != nil {
			return fmt.Errorf("no patch found, run `leech patch create` first: %w", err)
		}
		sql, ok, err := leech.RenderSQL(cfg, p)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Print("-- no changes\n")
			return nil
		}
		fmt.Print(sql)
		return nil
	},
}

var patchAppliedCmd = &cobra.Command{
	Use:   "applied",
	Short: "Mark the stored patch as applied downstream",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p, err := leech.StoredPatch(cfg)
		if err != nil {
			return fmt.Errorf("no patch found, run `leech patch create` first: %w", err)
		}
		if err := leech.MarkApplied(cfg, p); err != nil {
			return err
		}
		fmt.Printf("Marked %s as applied\n", p.HeadHash)
		return nil
	},
}
