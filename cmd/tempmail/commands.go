package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nhle/tempmail/internal/archive"
	"github.com/nhle/tempmail/internal/credential"
	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/normalize"
	appsync "github.com/nhle/tempmail/internal/sync"
)

func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag.Name, err))
	}
}

func newNewCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Generate a new mailbox and print its address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := e.client().NewMailbox(cmd.Context())
			if err != nil {
				return err
			}

			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.RememberMailbox(cmd.Context(), addr); err != nil {
				e.logger.Warn("remembering mailbox", zap.Error(err))
			}
			if err := s.SetLastMailbox(cmd.Context(), addr); err != nil {
				e.logger.Warn("saving last mailbox", zap.Error(err))
			}

			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}
}

func newListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the mailboxes the backend considers active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addrs, err := e.client().ListMailboxes(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, a := range addrs {
				fmt.Fprintln(out, a)
			}
			return nil
		},
	}
}

func newMessagesCmd(e *env) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "messages <address>",
		Short: "Print the messages of a mailbox, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := args[0]
			out := cmd.OutOrStdout()

			if !watch {
				msgs, err := e.client().Messages(cmd.Context(), addr)
				if err != nil {
					return err
				}
				model.SortNewestFirst(msgs)
				for _, msg := range msgs {
					printMessage(out, msg)
				}
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchMailbox(ctx, e, addr, out)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep polling and print new messages as they arrive")
	return cmd
}

// watchMailbox runs a poll session for addr and prints every message it
// has not printed before, until ctx is done.
func watchMailbox(ctx context.Context, e *env, addr string, out io.Writer) error {
	poller := appsync.New(e.client(), appsync.Options{
		Interval:     e.cfg.Poll.Interval(),
		FetchTimeout: e.cfg.Poll.FetchTimeout(),
	}, e.logger.Named("poller"))
	if err := poller.StartSession(addr); err != nil {
		return err
	}
	defer poller.StopSession()

	seen := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-poller.Results():
			if res.Stale {
				continue
			}
			if res.Err != nil {
				if res.Foreground {
					return res.Err
				}
				continue
			}
			// Oldest first so the terminal reads top to bottom.
			for i := len(res.Messages) - 1; i >= 0; i-- {
				msg := res.Messages[i]
				k := messageKey(msg)
				if seen[k] {
					continue
				}
				seen[k] = true
				printMessage(out, msg)
			}
		}
	}
}

func messageKey(msg model.Message) string {
	return msg.Timestamp.Format(time.RFC3339Nano) + "\x00" + msg.Sender + "\x00" + msg.Subject
}

func printMessage(out io.Writer, msg model.Message) {
	code := msg.Code
	if code == "" {
		code = normalize.ExtractCode(msg.DisplayBody())
	}
	line := fmt.Sprintf("%s  %-30s  %s",
		msg.Timestamp.Local().Format("2006-01-02 15:04"),
		msg.Sender,
		normalize.DecodeSubject(msg.Subject),
	)
	if code != "" {
		line += "  [" + code + "]"
	}
	fmt.Fprintln(out, line)
}

func newDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <address>",
		Short: "Delete a mailbox and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := args[0]
			if err := e.client().DeleteMailbox(cmd.Context(), addr); err != nil {
				return err
			}

			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.ForgetMailbox(cmd.Context(), addr); err != nil {
				return err
			}
			last, err := s.LastMailbox(cmd.Context())
			if err != nil {
				return err
			}
			if last == addr {
				if err := s.ClearLastMailbox(cmd.Context()); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", addr)
			return nil
		},
	}
}

func newExportCmd(e *env) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <address>",
		Short: "Write the messages of a mailbox to an mbox file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := args[0]
			msgs, err := e.client().Messages(cmd.Context(), addr)
			if err != nil {
				return err
			}
			model.SortNewestFirst(msgs)

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating %s: %w", outPath, err)
				}
				defer f.Close()
				w = f
			}

			n, err := archive.WriteMbox(w, addr, msgs)
			if err != nil {
				return err
			}
			if outPath != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d messages to %s\n", n, outPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "Output mbox file, - for stdout")
	return cmd
}

func newArchiveCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive <address>",
		Short: "Append the messages of a mailbox to an IMAP folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := args[0]
			cfg := e.cfg.Archive

			password, err := credential.NewVault().IMAPPassword(cfg.IMAPUser, cfg.IMAPHost)
			if err != nil {
				if errors.Is(err, credential.ErrNotFound) {
					return fmt.Errorf("no IMAP password for %s@%s: run `tempmail config set-imap-password` or set %s",
						cfg.IMAPUser, cfg.IMAPHost, credential.PasswordEnv)
				}
				return err
			}

			archiver, err := archive.NewIMAPArchiver(archive.OptionsFromConfig(cfg, password), e.logger.Named("imap"))
			if err != nil {
				return err
			}

			msgs, err := e.client().Messages(cmd.Context(), addr)
			if err != nil {
				return err
			}
			model.SortNewestFirst(msgs)

			n, err := archiver.Append(cmd.Context(), addr, msgs)
			if err != nil {
				return fmt.Errorf("archived %d of %d messages: %w", n, len(msgs), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "archived %d messages to %s\n", n, archiver.Folder())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("imap-host", "", "IMAP server hostname")
	flags.Int("imap-port", 0, "IMAP server port (993 with TLS, 143 without)")
	flags.String("imap-user", "", "IMAP username")
	flags.String("folder", "TempMail", "Target IMAP folder")
	flags.Bool("tls", true, "Use implicit TLS")
	mustBind(e.v, "archive.imap_host", flags.Lookup("imap-host"))
	mustBind(e.v, "archive.imap_port", flags.Lookup("imap-port"))
	mustBind(e.v, "archive.imap_user", flags.Lookup("imap-user"))
	mustBind(e.v, "archive.folder", flags.Lookup("folder"))
	mustBind(e.v, "archive.tls", flags.Lookup("tls"))
	return cmd
}

func newDecodeSubjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode-subject <raw>",
		Short: "Decode a MIME encoded-word subject",
		Args:  cobra.MinimumNArgs(1),
		// Needs no config or backend.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), normalize.DecodeSubject(strings.Join(args, " ")))
			return nil
		},
	}
}

func newConfigCmd(e *env) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file and credentials",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(e.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", e.configPath)
			}
			if err := model.SaveConfig(e.configPath, e.cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", e.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	setPassword := &cobra.Command{
		Use:   "set-imap-password",
		Short: "Store the IMAP archive password in the system keyring (read from stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := e.cfg.Archive
			if cfg.IMAPHost == "" || cfg.IMAPUser == "" {
				return errors.New("archive.imap_host and archive.imap_user must be configured first")
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s@%s: ", cfg.IMAPUser, cfg.IMAPHost)
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("reading password: %w", err)
			}
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				return errors.New("empty password")
			}

			key := credential.IMAPKey(cfg.IMAPUser, cfg.IMAPHost)
			if err := credential.NewVault().Set(key, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "\nstored %s\n", key)
			return nil
		},
	}

	cfgCmd.AddCommand(initCmd, setPassword)
	return cfgCmd
}
