package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
)

func newAskCmd() *cobra.Command {
	var (
		sessionID string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Ask one question, or read one question per line from stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			ask := func(message string) error {
				resp, err := a.orchestrator.Chat(cmd.Context(), contractx.ChatRequest{
					Message:   message,
					SessionID: sessionID,
				})
				if err != nil {
					return err
				}
				return printResponse(out, resp, asJSON)
			}

			if len(args) == 1 {
				return ask(args[0])
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if err := ask(line); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "cli", "session id for conversation history")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response envelope")
	return cmd
}

func printResponse(w io.Writer, resp *contractx.ChatResponse, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintf(w, "[%s] %s\n", resp.Route, resp.Answer)
	for _, c := range resp.Citations {
		switch c.Type {
		case contractx.CitationTool:
			found := c.Found != nil && *c.Found
			fmt.Fprintf(w, "  - tool %s found=%t\n", c.Tool, found)
		case contractx.CitationRAG:
			fmt.Fprintf(w, "  - %s chunk %d (%.3f)\n", c.DocID, c.ChunkID, c.Score)
		}
	}
	fmt.Fprintf(w, "  (%d ms)\n", resp.Telemetry.LatencyMS)
	return nil
}
