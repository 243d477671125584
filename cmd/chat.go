package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal",
	Long: `Starts an interactive conversation with the assistant, the same one served
over web chat. Type /reset to start over, /state to print the session and
/quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		id := chatSession
		if id == "" {
			id = "cli:" + uuid.New().String()
		}
		fmt.Printf("Session %s. /reset starts over, /quit leaves.\n\n", id)

		prompt := promptui.Prompt{Label: "Siz"}
		for {
			line, err := prompt.Run()
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			switch strings.TrimSpace(line) {
			case "/quit", "/exit":
				return nil
			case "/reset":
				if err := a.engine.Reset(ctx, id); err != nil {
					return err
				}
				fmt.Println("Session cleared.")
				continue
			case "/state":
				c, err := a.engine.State(ctx, id)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(c); err != nil {
					return err
				}
				continue
			}

			reply, err := a.engine.HandleTurn(ctx, id, line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			fmt.Printf("\n%s\n", reply.Text)
			if verbose {
				fmt.Printf("  [stage=%s confidence=%.2f]\n", reply.Stage, reply.Confidence)
			}
			fmt.Println()
		}
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "", "resume a session id instead of starting a new one")
	rootCmd.AddCommand(chatCmd)
}
