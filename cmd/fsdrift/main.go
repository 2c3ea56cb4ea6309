package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"fsdrift/internal/app"
	"fsdrift/internal/config"
	"fsdrift/internal/drift"
	"fsdrift/internal/summarize"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := drift.Suggestion(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}

var verbose bool

// loadConfig reads the config file named by the defaults.
func loadConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "snapshot", "drift").
func newApp(operation string, args []string) (*app.App, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	params := ""
	if len(args) > 0 {
		params = args[0]
	}
	a, err := app.NewApp(cfg, app.Options{
		Operation:  operation,
		Parameters: params,
		Passphrase: func() (string, error) { return readSecret("Passphrase: ") },
		Verbose:    verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func optionalArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

var rootCmd = &cobra.Command{
	Use:           "fsdrift",
	Short:         "Filesystem inventory and drift detection",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := drift.UUIDGenerator{}.New()
		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		key, err := app.LoadAPIKey(cfg)
		if err != nil {
			key = ""
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		printConfig(os.Stdout, cfg, summarize.MaskKey(key))
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Create the key pair that encrypts snapshots at rest",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		passphrase, err := readSecret("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readSecret("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := app.SetupEncryption(path, cfg, passphrase); err != nil {
			return err
		}
		fmt.Printf("Keys written to %s and %s\n", cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath)
		fmt.Println("Snapshot encryption enabled. The next snapshot will be encrypted.")
		return nil
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Store the summarizer API key in the OS keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		key, err := readSecret("API key: ")
		if err != nil {
			return err
		}
		if err := app.SetAPIKey(cfg.HostID, key); err != nil {
			return err
		}
		fmt.Printf("API key %s stored in the keyring\n", summarize.MaskKey(key))
		return nil
	},
}

// tree command: the capture helper executed on remote hosts.
var treeCmd = &cobra.Command{
	Use:   "tree [PATH]",
	Short: "Print the JSON tree of PATH (default: home directory)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ignore, _ := cmd.Flags().GetStringArray("ignore")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		tree, err := app.CaptureLocalTree(ctx, optionalArg(args), ignore)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(tree)
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [PATH]",
	Short: "Capture the tree and store it as the snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("snapshot", args)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		res, err := a.Snapshot(ctx, optionalArg(args))
		if err != nil {
			a.Fail(err)
			return err
		}

		fmt.Printf("Snapshot of %d entries saved to %s\n", res.Entries, res.Location)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp("show", args)
		if err != nil {
			return err
		}
		defer a.Close()

		if asJSON {
			data, err := a.RawSnapshot()
			if err != nil {
				a.Fail(err)
				return err
			}
			_, err = os.Stdout.Write(data)
			fmt.Println()
			return err
		}

		record, err := a.LastSnapshot()
		if err != nil {
			a.Fail(err)
			return err
		}
		printSnapshot(os.Stdout, record)
		return nil
	},
}

var driftCmd = &cobra.Command{
	Use:   "drift [PATH]",
	Short: "Compare a fresh capture with the stored snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		update, _ := cmd.Flags().GetBool("update")

		a, err := newApp("drift", args)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		result, err := a.Drift(ctx, optionalArg(args), update)
		if err != nil {
			a.Fail(err)
			return err
		}

		printDrift(os.Stdout, result)
		return nil
	},
}

// pdf command
var pdfCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Work with PDF documents recorded in the snapshot",
}

var pdfListCmd = &cobra.Command{
	Use:   "list",
	Short: "List PDF documents in the stored snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("pdf list", args)
		if err != nil {
			return err
		}
		defer a.Close()

		paths, err := a.ListPDFs()
		if err != nil {
			a.Fail(err)
			return err
		}

		if len(paths) == 0 {
			fmt.Println("No PDF documents in the snapshot.")
			return nil
		}
		for i, p := range paths {
			fmt.Printf("%3d  %s\n", i+1, p)
		}
		return nil
	},
}

var pdfSummarizeCmd = &cobra.Command{
	Use:   "summarize PATH|NUMBER",
	Short: "Summarize a PDF document listed by `pdf list`",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("pdf summarize", args)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		summary, err := a.SummarizePDF(ctx, args[0])
		if err != nil {
			a.Fail(err)
			return err
		}

		fmt.Printf("Summary of %s:\n\n%s\n", filepath.Base(summary.Path), summary.Text)
		if summary.Truncated {
			fmt.Printf("\n(only the first %d words were summarized)\n", summary.WordsSent)
		}
		return nil
	},
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Install this executable on the remote host as the capture helper",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("deploy", args)
		if err != nil {
			return err
		}
		defer a.Close()

		dest, err := a.Deploy(cmd.Context())
		if err != nil {
			a.Fail(err)
			return err
		}
		fmt.Printf("Capture helper installed at %s\n", dest)
		return nil
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List block devices of the inventoried host",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("devices", args)
		if err != nil {
			return err
		}
		defer a.Close()

		devices, err := a.Devices(cmd.Context())
		if err != nil {
			a.Fail(err)
			return err
		}
		printDevices(os.Stdout, devices)
		return nil
	},
}

// store command
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the snapshot store",
}

var storeCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the snapshot store is reachable and readable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("store check", args)
		if err != nil {
			return err
		}
		defer a.Close()

		status, err := a.CheckStore()
		if status != nil {
			printStoreStatus(os.Stdout, status)
		}
		if err != nil {
			a.Fail(err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configSetKeyCmd)

	// pdf subcommands
	pdfCmd.AddCommand(pdfListCmd)
	pdfCmd.AddCommand(pdfSummarizeCmd)

	// store subcommands
	storeCmd.AddCommand(storeCheckCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().StringArray("ignore", nil, "Patterns to skip, in .fsdriftignore syntax")
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("json", false, "Print the stored record as JSON")
	rootCmd.AddCommand(driftCmd)
	driftCmd.Flags().BoolP("update", "u", false, "Replace the snapshot with the fresh capture")
	rootCmd.AddCommand(pdfCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(storeCmd)
}
