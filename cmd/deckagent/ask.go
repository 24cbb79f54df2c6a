package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cexll/deckagent-go/pkg/agent"
	"github.com/cexll/deckagent-go/pkg/chat"
	"github.com/cexll/deckagent-go/pkg/event"
	"github.com/cexll/deckagent-go/pkg/export"
	"github.com/cexll/deckagent-go/pkg/session"
)

var askImages []string

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send a single chat turn from the command line",
	Long: `ask runs one conversational turn without the HTTP server. If the model
decides the brief is complete it generates the deck in-place and prints
the path to the resulting PPTX.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringSliceVarP(&askImages, "image", "i", nil, "image file to attach (repeatable)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	m, err := buildModel(ctx, cfg)
	if err != nil {
		return err
	}

	workDir := cfg.Workspace.WorkDir
	screenshotDir := resolveDir(workDir, cfg.Workspace.ScreenshotDir)
	exportDir := resolveDir(workDir, cfg.Workspace.ExportDir)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", workDir, err)
	}

	rasterizer := export.NewRodRasterizer(logger).
		WithViewport(cfg.Export.ViewportWidth, cfg.Export.ViewportHeight).
		WithHeadless(*cfg.Export.Headless)
	pipeline := export.NewPipeline(rasterizer, screenshotDir, logger)
	generator, err := agent.NewGenerator(m, workDir, exportDir, pipeline, logger)
	if err != nil {
		return err
	}
	generator = generator.WithBudget(cfg.Agent.GenerationMaxIterations, cfg.Agent.GenerationMaxTokens)
	chatAgent, err := chat.New(m, generator, logger)
	if err != nil {
		return err
	}
	chatAgent = chatAgent.WithBudget(cfg.Agent.ChatMaxIterations, cfg.Agent.ChatMaxTokens)

	state, err := session.NewState(uuid.NewString())
	if err != nil {
		return err
	}

	reply, err := chatAgent.SendMessage(ctx, state, args[0], askImages, printProgress)
	if err != nil {
		return err
	}

	fmt.Println(reply)
	if state.PPTXFile != "" {
		fmt.Println("PPTX:", state.PPTXFile)
	}
	return nil
}

// printProgress mirrors the SSE stream on stderr so stdout stays clean for
// the reply text.
func printProgress(evt event.Event) {
	switch evt.Type {
	case event.TypeToolCall:
		fmt.Fprintf(os.Stderr, "-> %v\n", evt.Data["tool"])
	case event.TypeToolResult:
		if isErr, _ := evt.Data["is_error"].(bool); isErr {
			fmt.Fprintf(os.Stderr, "!! %v failed\n", evt.Data["tool"])
		}
	case event.TypeScreenshot:
		fmt.Fprintf(os.Stderr, "captured %v/%v\n", evt.Data["slide_number"], evt.Data["total_slides"])
	case event.TypeSlideAdded:
		fmt.Fprintf(os.Stderr, "assembled %v/%v\n", evt.Data["slide_number"], evt.Data["total_slides"])
	case event.TypeStatus:
		fmt.Fprintf(os.Stderr, ".. %v\n", evt.Data["stage"])
	}
}
