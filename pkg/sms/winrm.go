package sms

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/masterzen/winrm"
	"golang.org/x/text/encoding/unicode"
)

// WinRMConfig describes how to reach the SMS provider host.
type WinRMConfig struct {
	Host     string
	Port     int
	HTTPS    bool
	Insecure bool
	Username string
	Password string
	Domain   string // NTLM is used when set
	Timeout  time.Duration

	// Namespace is the provider namespace, e.g. root\sms\site_PS1.
	Namespace string
}

// commandRunner is the part of *winrm.Client the scope uses.
type commandRunner interface {
	RunWithContextWithString(ctx context.Context, command string, stdin string) (string, string, int, error)
}

// WinRMScope implements Scope by running PowerShell CIM scripts on the provider host.
type WinRMScope struct {
	runner    commandRunner
	namespace string
}

// NewWinRMScope connects a WinRM client to the provider host.
func NewWinRMScope(cfg WinRMConfig) (*WinRMScope, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("winrm: host is required")
	}
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("winrm: provider namespace is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 5985
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	endpoint := winrm.NewEndpoint(cfg.Host, cfg.Port, cfg.HTTPS, cfg.Insecure, nil, nil, nil, cfg.Timeout)

	var client *winrm.Client
	var err error
	if cfg.Domain != "" {
		params := winrm.NewParameters(fmt.Sprintf("PT%dS", int(cfg.Timeout.Seconds())), "en-US", 153600)
		params.TransportDecorator = func() winrm.Transporter { return &winrm.ClientNTLM{} }
		client, err = winrm.NewClientWithParameters(
			endpoint,
			fmt.Sprintf("%s\\%s", cfg.Domain, cfg.Username),
			cfg.Password,
			params,
		)
	} else {
		client, err = winrm.NewClient(endpoint, cfg.Username, cfg.Password)
	}
	if err != nil {
		return nil, fmt.Errorf("winrm: creating client: %w", err)
	}

	slog.Debug("WinRM scope ready", "component", "WinRMScope", "host", cfg.Host, "port", cfg.Port, "namespace", cfg.Namespace)
	return &WinRMScope{runner: client, namespace: cfg.Namespace}, nil
}

func (s *WinRMScope) PutInventoryClass(ctx context.Context, class *InventoryClass) error {
	_, err := s.run(ctx, "PutInventoryClass", class)
	return err
}

func (s *WinRMScope) FindInventoryClass(ctx context.Context, classID string) (*InventoryClass, error) {
	out, err := s.run(ctx, "FindInventoryClass", InventoryClass{SMSClassID: classID})
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, fmt.Errorf("%s %s: %w", InventoryClassName, classID, ErrNotFound)
	}

	var class InventoryClass
	if err := json.Unmarshal([]byte(out), &class); err != nil {
		return nil, &RemoteError{Op: "FindInventoryClass", Err: fmt.Errorf("decoding response: %w", err)}
	}
	return &class, nil
}

func (s *WinRMScope) DeleteInventoryClass(ctx context.Context, class *InventoryClass) error {
	_, err := s.run(ctx, "DeleteInventoryClass", InventoryClass{SMSClassID: class.SMSClassID})
	return err
}

func (s *WinRMScope) GetInventoryReport(ctx context.Context, reportID string) (*InventoryReport, error) {
	out, err := s.run(ctx, "GetInventoryReport", InventoryReport{InventoryReportID: reportID})
	if err != nil {
		return nil, err
	}

	var report InventoryReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		return nil, &RemoteError{Op: "GetInventoryReport", Err: fmt.Errorf("decoding response: %w", err)}
	}
	return &report, nil
}

func (s *WinRMScope) PutInventoryReport(ctx context.Context, report *InventoryReport) error {
	_, err := s.run(ctx, "PutInventoryReport", report)
	return err
}

// run executes the named script with req as its stdin and returns the trimmed stdout.
func (s *WinRMScope) run(ctx context.Context, op string, req any) (string, error) {
	script, err := renderScript(op, s.namespace)
	if err != nil {
		return "", err
	}
	command, err := encodeCommand(script)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%s: encoding request: %w", op, err)
	}

	stdout, stderr, exitCode, err := s.runner.RunWithContextWithString(ctx, command, string(payload))
	if err != nil {
		return "", &RemoteError{Op: op, Err: err}
	}
	if exitCode != 0 {
		return "", &RemoteError{Op: op, ExitCode: exitCode, Stderr: strings.TrimSpace(stderr)}
	}

	slog.Debug("Remote call done", "component", "WinRMScope", "op", op)
	return strings.TrimSpace(stdout), nil
}

// encodeCommand wraps a script into a powershell command line using -EncodedCommand (base64 of UTF-16LE).
func encodeCommand(script string) (string, error) {
	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	encoded, err := utf16.NewEncoder().String(script)
	if err != nil {
		return "", fmt.Errorf("encoding script: %w", err)
	}
	b64 := base64.StdEncoding.EncodeToString([]byte(encoded))
	return fmt.Sprintf("powershell -NoProfile -NonInteractive -ExecutionPolicy Bypass -EncodedCommand %s", b64), nil
}
