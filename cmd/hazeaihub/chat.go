package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/Hazehacker/Haze-AI-Hub/internal/stream"
	"github.com/Hazehacker/Haze-AI-Hub/internal/transport/ws"
)

// chatClient is a terminal client for the WebSocket chat endpoint.
type chatClient struct {
	conn      *websocket.Conn
	sessionID string
	thinking  bool
	budget    int
}

// dialChat connects to the server.
func dialChat(ctx context.Context, addr, sessionID string, thinking bool, budget int) (*chatClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &chatClient{conn: conn, sessionID: sessionID, thinking: thinking, budget: budget}, nil
}

// Close closes the client connection.
func (c *chatClient) Close() error {
	return c.conn.Close()
}

// Ask sends one prompt and writes the framed reply to out until the turn
// ends. Canceling ctx sends a cancel frame and waits for the server to
// confirm.
func (c *chatClient) Ask(ctx context.Context, prompt string, out io.Writer) error {
	msg := ws.ChatMessage{
		BaseMessage: ws.BaseMessage{
			Type:      ws.TypeChat,
			Ts:        time.Now().UnixMilli(),
			RequestID: "req_" + uuid.New().String()[:8],
			SessionID: c.sessionID,
		},
		Prompt:         prompt,
		EnableThinking: c.thinking,
	}
	if c.budget > 0 {
		msg.ThinkingBudget = &c.budget
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write chat: %w", err)
	}

	stopCancel := context.AfterFunc(ctx, func() {
		c.conn.WriteJSON(ws.CancelMessage{BaseMessage: ws.BaseMessage{
			Type:      ws.TypeCancel,
			Ts:        time.Now().UnixMilli(),
			RequestID: msg.RequestID,
		}})
	})
	defer stopCancel()

	var framer stream.TextFramer
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var base ws.BaseMessage
		if err := json.Unmarshal(data, &base); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		if base.RequestID != "" && base.RequestID != msg.RequestID {
			continue
		}

		switch base.Type {
		case ws.TypeChunk:
			var chunk ws.ChunkMessage
			if err := json.Unmarshal(data, &chunk); err != nil {
				return fmt.Errorf("unmarshal chunk: %w", err)
			}
			fmt.Fprint(out, framer.Frame(chunk.Chunk))

		case ws.TypeDone:
			var done ws.DoneMessage
			if err := json.Unmarshal(data, &done); err != nil {
				return fmt.Errorf("unmarshal done: %w", err)
			}
			fmt.Fprint(out, framer.Finish())
			fmt.Fprintln(out)
			if done.PersistError != "" {
				fmt.Fprintf(out, "(not saved: %s)\n", done.PersistError)
			}
			return nil

		case ws.TypeError:
			var errMsg ws.ErrorMessage
			if err := json.Unmarshal(data, &errMsg); err != nil {
				return fmt.Errorf("unmarshal error: %w", err)
			}
			if errMsg.Code == ws.ErrorCodeCanceled {
				fmt.Fprintln(out)
				return context.Canceled
			}
			return fmt.Errorf("%s: %s", errMsg.Code, errMsg.Message)
		}
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Connecting to %s...\n", serverAddr)

	client, err := dialChat(cmd.Context(), serverAddr, sessionID, enableThinking, thinkingBudget)
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Fprintln(out, "Connected. Type a message and press Enter to send.")
	fmt.Fprintln(out, "Ctrl+C stops the current reply. Commands: /quit to exit")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" {
			fmt.Fprintln(out, "Bye!")
			return nil
		}

		turnCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err := client.Ask(turnCtx, input, out)
		stop()
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
}
