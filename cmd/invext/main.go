package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"invext/pkg/config"
	"invext/pkg/credentials"
	"invext/pkg/inventory"
	"invext/pkg/journal"
	"invext/pkg/sms"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir, schemaPath string

	root := &cobra.Command{
		Use:          "invext",
		Short:        "Install, uninstall, enable and disable hardware inventory extensions",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory holding app.yaml and .env")

	withSchema := func(cmd *cobra.Command) *cobra.Command {
		cmd.Flags().StringVar(&schemaPath, "schema", "", "inventory extension schema file (JSON)")
		_ = cmd.MarkFlagRequired("schema")
		return cmd
	}

	root.AddCommand(withSchema(&cobra.Command{
		Use:   "validate",
		Short: "Check the schema file without contacting the site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.LoadConfig(configDir)
			if err != nil {
				return err
			}
			setupLogging(conf)

			exts, err := loadSchema(schemaPath)
			if err != nil {
				return err
			}
			slog.Info("Schema is valid", "component", "CLI", "schema", schemaPath, "extensions", len(exts))
			return nil
		},
	}))

	for _, action := range []inventory.Action{
		inventory.ActionInstall,
		inventory.ActionUninstall,
		inventory.ActionEnable,
		inventory.ActionDisable,
	} {
		root.AddCommand(withSchema(&cobra.Command{
			Use:   string(action),
			Short: "Run " + string(action) + " for every extension in the schema",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), configDir, schemaPath, action)
			},
		}))
	}

	root.AddCommand(&cobra.Command{
		Use:   "encrypt-password",
		Short: "Encrypt a WinRM password read from stdin with SECRET_KEY",
		Long: "Reads the password from the first line of stdin and prints the ciphertext to store in WINRM_PASSWORD.\n" +
			"SECRET_KEY must be set in the environment, .env or app.yaml.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.LoadConfig(configDir)
			if err != nil {
				return err
			}
			setupLogging(conf)

			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			cipher, err := credentials.EncryptPassword(password, conf.SecretKey)
			if err != nil {
				slog.Error("Failed to encrypt password", "component", "CLI", "error", err)
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cipher)
			return err
		},
	})

	return root
}

// readPassword returns the first line of r without its line ending.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("no password on stdin")
	}
	return password, nil
}

func run(ctx context.Context, configDir, schemaPath string, action inventory.Action) error {
	conf, err := config.LoadConfig(configDir)
	if err != nil {
		slog.Error("Failed to load conf", "error", err)
		return err
	}
	setupLogging(conf)

	exts, err := loadSchema(schemaPath)
	if err != nil {
		return err
	}

	scope, err := connect(conf)
	if err != nil {
		slog.Error("Failed to connect to SMS provider", "component", "CLI", "host", conf.ProviderHost, "error", err)
		return err
	}

	reporter := inventory.MultiReporter{inventory.NewLogReporter(slog.Default())}
	if conf.JournalDSN != "" {
		db, err := journal.Connect(conf.JournalDSN)
		if err != nil {
			slog.Error("Failed to connect to journal", "component", "CLI", "error", err)
			return err
		}
		recorder := journal.NewRecorder(db)
		if err := recorder.Migrate(ctx); err != nil {
			slog.Error("Failed to migrate journal", "component", "CLI", "error", err)
			return err
		}
		reporter = append(reporter, recorder)
	}

	slog.Info("Applying schema", "component", "CLI", "action", action, "extensions", len(exts), "host", conf.ProviderHost)
	if err := inventory.Apply(ctx, scope, reporter, exts, action); err != nil {
		slog.Error("Apply stopped", "component", "CLI", "action", action, "error", err)
		return err
	}
	return nil
}

func loadSchema(path string) ([]inventory.Extension, error) {
	exts, err := inventory.LoadFromFile(path)
	if err != nil {
		slog.Error("Failed to load schema", "component", "CLI", "schema", path, "error", err)
		return nil, err
	}
	if err := inventory.Validate(exts); err != nil {
		slog.Error("Invalid schema", "component", "CLI", "schema", path, "error", err)
		return nil, err
	}
	return exts, nil
}

func connect(conf *config.Config) (*sms.WinRMScope, error) {
	namespace, err := conf.ProviderNamespace()
	if err != nil {
		return nil, err
	}

	account, err := credentials.Resolve(credentials.WinRM{
		Username: conf.WinRMUser,
		Password: conf.WinRMPassword,
		Domain:   conf.WinRMDomain,
	}, conf.SecretKey)
	if err != nil {
		return nil, err
	}

	return sms.NewWinRMScope(sms.WinRMConfig{
		Host:      conf.ProviderHost,
		Port:      conf.WinRMPort,
		HTTPS:     conf.WinRMHTTPS,
		Insecure:  conf.WinRMInsecure,
		Username:  account.Username,
		Password:  account.Password,
		Domain:    account.Domain,
		Timeout:   conf.WinRMTimeout(),
		Namespace: namespace,
	})
}

func setupLogging(conf *config.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(conf.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if conf.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
