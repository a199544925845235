package main

import "github.com/spf13/cobra"

var (
	configPath string

	// chat flags
	serverAddr     string
	sessionID      string
	enableThinking bool
	thinkingBudget int

	rootCmd = &cobra.Command{
		Use:           "hazeaihub",
		Short:         "Streaming chat server with separated thinking and answer channels",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket chat server",
		Args:  cobra.NoArgs,
		RunE:  runServe, // Defined in serve.go
	}

	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Chat with a running server from the terminal",
		Args:  cobra.NoArgs,
		RunE:  runChat, // Defined in chat.go
	}
)

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (env vars override it)")

	chatCmd.Flags().StringVar(&serverAddr, "addr", "ws://localhost:8080/api/v1/ai/ws", "WebSocket endpoint of the server")
	chatCmd.Flags().StringVar(&sessionID, "session", "", "session id to persist turns into (empty: not persisted)")
	chatCmd.Flags().BoolVar(&enableThinking, "thinking", true, "request a thinking trace")
	chatCmd.Flags().IntVar(&thinkingBudget, "budget", 0, "thinking token budget (0: unbounded)")

	rootCmd.AddCommand(serveCmd, chatCmd)
}
