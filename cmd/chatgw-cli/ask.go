package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/blueember/storefront-chat/internal/plugins/localresponder"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// isTerminal reports whether fd is a terminal. Tests override it.
var isTerminal = term.IsTerminal

const defaultGatewayURL = "http://localhost:3000"

type askOptions struct {
	url     string
	model   string
	offline bool
	timeout time.Duration
}

func askCmd() *cobra.Command {
	opts := askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send a chat message to a running gateway",
		Long: `Send a chat message to a running gateway and print the reply.

With no message, ask reads messages from stdin, one per line, and shows a
prompt when stdin is a terminal. --offline answers from the built-in
storefront replies without contacting any server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return askOnce(cmd.Context(), cmd.OutOrStdout(), opts, strings.Join(args, " "))
			}
			return askLoop(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.url, "url", defaultGatewayURL, "gateway base URL")
	cmd.Flags().StringVar(&opts.model, "model", "", "model ID (gateway default when empty)")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "answer locally without a gateway")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "request timeout")
	return cmd
}

func askLoop(ctx context.Context, in io.Reader, out io.Writer, opts askOptions) error {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = isTerminal(int(f.Fd()))
	}
	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if interactive && (line == "exit" || line == "quit") {
			return nil
		}
		if err := askOnce(ctx, out, opts, line); err != nil {
			if !interactive {
				return err
			}
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func askOnce(ctx context.Context, out io.Writer, opts askOptions, message string) error {
	if opts.offline {
		reply, ok := localresponder.Respond(message)
		if !ok {
			reply = localresponder.Fallback(message, nil)
		}
		fmt.Fprintln(out, reply)
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	reply, err := postChat(ctx, &http.Client{Timeout: opts.timeout}, opts.url, message, opts.model)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, reply)
	return nil
}

type chatError struct {
	Status      int    `json:"-"`
	Message     string `json:"error"`
	Details     string `json:"details"`
	ChainLength int    `json:"chainLength"`
}

func (e *chatError) Error() string {
	msg := fmt.Sprintf("%d %s", e.Status, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.ChainLength > 0 {
		msg += fmt.Sprintf(" (%d keys tried)", e.ChainLength)
	}
	return msg
}

func postChat(ctx context.Context, client *http.Client, baseURL, message, model string) (string, error) {
	body, err := json.Marshal(map[string]string{"message": message, "model": model})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("contacting gateway: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		ce := &chatError{Status: resp.StatusCode}
		if json.Unmarshal(data, ce) != nil || ce.Message == "" {
			ce.Message = http.StatusText(resp.StatusCode)
		}
		return "", ce
	}
	var ok struct {
		Reply *string `json:"reply"`
	}
	if err := json.Unmarshal(data, &ok); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if ok.Reply == nil {
		return "", errors.New("response has no reply field")
	}
	return *ok.Reply, nil
}
