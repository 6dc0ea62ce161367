package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tasktalk/internal/config"
)

var (
	threadFlag      string
	tuiFlag         bool
	verboseFlag     bool
	metricsAddrFlag string
)

const goodbye = "Exiting the agent. Goodbye!"

var rootCmd = &cobra.Command{
	Use:   "tasktalk",
	Short: "Chat with an assistant that manages your tasks",
	Long: `tasktalk is a conversational assistant. It chats, creates tasks with a
title, priority and due date, and marks tasks complete by id.

With no arguments it starts a prompt on the configured thread. Type "exit"
to quit. Conversations are saved per thread, so restarting with the same
--thread continues where you left off.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Watch(func(c *config.Config) {
			log.Printf("[config] reloaded; provider=%s store=%s (backend changes apply on restart)", c.Oracle.Provider, c.Store.Backend)
		})
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if !verboseFlag {
			log.SetOutput(io.Discard)
		}

		threadID := threadFlag
		if threadID == "" {
			threadID = cfg.Session.ThreadID
		}

		rt, err := newRuntime(ctx, cfg, runtimeOptions{withEvents: tuiFlag, verbose: verboseFlag})
		if err != nil {
			return err
		}
		defer rt.Close()

		if metricsAddrFlag != "" {
			go func() {
				if err := rt.metrics.Serve(ctx, metricsAddrFlag); err != nil {
					log.Printf("[metrics] %v", err)
				}
			}()
		}

		if tuiFlag {
			return runTUI(ctx, rt, threadID)
		}
		return runREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), rt.assistant, threadID)
	},
}

// turner is the part of the assistant the prompt loop drives.
type turner interface {
	Turn(ctx context.Context, threadID, text string) (string, error)
}

// runREPL reads one line per turn until "exit", end of input or
// cancellation.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, a turner, threadID string) error {
	you := color.New(color.FgCyan, color.Bold)
	agentLabel := color.New(color.FgGreen, color.Bold)

	scanner := bufio.NewScanner(in)
	for {
		you.Fprint(out, "YOU: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			fmt.Fprintln(out, goodbye)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if strings.EqualFold(text, "exit") {
			fmt.Fprintln(out, goodbye)
			return nil
		}

		reply, err := a.Turn(ctx, threadID, text)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(out, goodbye)
				return nil
			}
			return fmt.Errorf("turn: %w", err)
		}
		agentLabel.Fprint(out, "AGENT: ")
		fmt.Fprintln(out, reply)
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&threadFlag, "thread", "", "Conversation thread id (default from session.thread_id)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Write a debug log and print diagnostics")
	rootCmd.Flags().BoolVar(&tuiFlag, "tui", false, "Use the full screen chat view")
	rootCmd.Flags().StringVar(&metricsAddrFlag, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}
