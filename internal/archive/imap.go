package archive

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"

	imapv2 "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"

	"github.com/nhle/tempmail/internal/model"
)

// IMAPOptions describes the account messages are archived to.
type IMAPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	Folder   string
}

// IMAPArchiver appends messages to a folder on an IMAP server.
type IMAPArchiver struct {
	opts   IMAPOptions
	logger *zap.Logger
}

// NewIMAPArchiver validates opts and returns an archiver.
func NewIMAPArchiver(opts IMAPOptions, logger *zap.Logger) (*IMAPArchiver, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("imap host is empty")
	}
	if opts.Port <= 0 {
		return nil, fmt.Errorf("imap port must be positive")
	}
	if opts.Username == "" {
		return nil, fmt.Errorf("imap user is empty")
	}
	if opts.Folder == "" {
		opts.Folder = "INBOX"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IMAPArchiver{opts: opts, logger: logger}, nil
}

// Folder is the target folder name.
func (a *IMAPArchiver) Folder() string {
	return a.opts.Folder
}

// Append uploads msgs, received by mailbox, with their timestamps as the
// internal date. It returns the number of messages appended before any
// error.
func (a *IMAPArchiver) Append(ctx context.Context, mailbox string, msgs []model.Message) (int, error) {
	client, err := a.dial()
	if err != nil {
		return 0, err
	}

	stopClose := context.AfterFunc(ctx, func() {
		_ = client.Close()
	})
	defer func() {
		stopClose()
		if ctx.Err() == nil {
			if err := client.Logout().Wait(); err != nil {
				a.logger.Warn("imap logout failed", zap.Error(err))
			}
		}
		_ = client.Close()
	}()

	if err := a.ensureFolder(client); err != nil {
		return 0, err
	}

	n := 0
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		raw, err := BuildRFC822(mailbox, msg)
		if err != nil {
			return n, err
		}
		if err := a.appendRaw(client, raw, msg); err != nil {
			return n, fmt.Errorf("appending message %q: %w", msg.Subject, err)
		}
		n++
	}

	a.logger.Info("archived messages",
		zap.String("mailbox", mailbox),
		zap.String("folder", a.opts.Folder),
		zap.Int("count", n),
	)
	return n, nil
}

func (a *IMAPArchiver) dial() (*imapclient.Client, error) {
	address := net.JoinHostPort(a.opts.Host, strconv.Itoa(a.opts.Port))

	var (
		client *imapclient.Client
		err    error
	)
	if a.opts.UseTLS {
		client, err = imapclient.DialTLS(address, &imapclient.Options{
			TLSConfig: &tls.Config{ServerName: a.opts.Host},
		})
	} else {
		client, err = imapclient.DialInsecure(address, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("dial imap %s: %w", address, err)
	}

	if err := client.Login(a.opts.Username, a.opts.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("imap login failed: %w", err)
	}

	a.logger.Debug("imap connection established",
		zap.String("address", address),
		zap.String("user", a.opts.Username),
		zap.Bool("tls", a.opts.UseTLS),
	)
	return client, nil
}

func (a *IMAPArchiver) ensureFolder(client *imapclient.Client) error {
	if err := client.Create(a.opts.Folder, nil).Wait(); err != nil {
		var respErr *imapv2.Error
		if errors.As(err, &respErr) && respErr.Code == imapv2.ResponseCodeAlreadyExists {
			return nil
		}
		return fmt.Errorf("ensure folder %s: %w", a.opts.Folder, err)
	}
	a.logger.Info("imap folder created", zap.String("folder", a.opts.Folder))
	return nil
}

func (a *IMAPArchiver) appendRaw(client *imapclient.Client, raw []byte, msg model.Message) error {
	var opts *imapv2.AppendOptions
	if !msg.Timestamp.IsZero() {
		opts = &imapv2.AppendOptions{Time: msg.Timestamp}
	}

	cmd := client.Append(a.opts.Folder, int64(len(raw)), opts)
	if _, err := cmd.Write(raw); err != nil {
		_ = cmd.Close()
		return fmt.Errorf("append write: %w", err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("append close: %w", err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("append wait: %w", err)
	}
	return nil
}

// OptionsFromConfig builds IMAPOptions from the archive config section
// and a password resolved by the caller.
func OptionsFromConfig(cfg model.ArchiveConfig, password string) IMAPOptions {
	host, portStr, err := net.SplitHostPort(cfg.Addr())
	port, convErr := strconv.Atoi(portStr)
	if err != nil || convErr != nil {
		host, port = cfg.IMAPHost, cfg.IMAPPort
	}
	return IMAPOptions{
		Host:     host,
		Port:     port,
		Username: cfg.IMAPUser,
		Password: password,
		UseTLS:   cfg.TLS,
		Folder:   cfg.Folder,
	}
}
