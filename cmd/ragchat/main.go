// Command ragchat is a thin terminal client over package ragchat: it loads
// configuration, builds an Engine, and either ingests a document into the
// knowledge base or drives RunChat once per line of stdin.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	ragchat "github.com/kbchat/ragchat-go"
	"github.com/kbchat/ragchat-go/config"
	"github.com/kbchat/ragchat-go/graph"
)

var (
	configPath string
	verbose    bool
	logger     *zap.Logger

	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")).Bold(true)
	answerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#101F38")).PaddingLeft(2)
	sourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3"))
	suggestStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107")).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true)
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Local knowledge-base chat over your documents",
	Long: `ragchat answers questions grounded in a local knowledge base.

Run "ragchat ingest <file>" to index a document, then "ragchat chat" to
start an interactive session against it. With no subcommand, chat runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		zapCfg.Encoding = "console"
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session, one question per line of stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Split, embed, and index a document into the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd.Context(), args[0])
	},
}

var (
	ingestTags []string
	htmlDir    string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "ragchat.yaml", "path to YAML configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	ingestCmd.Flags().StringSliceVarP(&ingestTags, "tags", "t", nil, "tags to attach to the ingested document")

	rootCmd.PersistentFlags().StringVar(&htmlDir, "html-dir", "", "write each answer as a rendered HTML file under this directory")

	rootCmd.AddCommand(chatCmd, ingestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func buildEngine() (*ragchat.Engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return ragchat.New(cfg, logger)
}

func runIngest(ctx context.Context, path string) error {
	engine, err := buildEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := engine.IngestDocument(ctx, filepathBase(path), path, filepathExt(path), ingestTags, string(content)); err != nil {
		return fmt.Errorf("ingest %s: %w", path, err)
	}

	fmt.Println(promptStyle.Render(fmt.Sprintf("indexed %s", path)))
	return nil
}

func runChat(ctx context.Context) error {
	engine, err := buildEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Println(promptStyle.Render("ragchat ready. ask a question, or Ctrl-D to exit."))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("> "))
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		turnCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		result := engine.RunChat(turnCtx, ragchat.ChatRequest{
			RunID:           fmt.Sprintf("cli-%d", time.Now().UnixNano()),
			ConversationKey: "cli-session",
			Question:        question,
			OnToken:         func(chunk string) { fmt.Print(answerStyle.Render(chunk)) },
			OnSources:       func(sources []graph.ChatSource) { printSources(sources) },
			OnSuggestions:   func(suggestions []string) { printSuggestions(suggestions) },
		})
		cancel()

		fmt.Println()
		if result.Error != "" {
			fmt.Println(errorStyle.Render(result.Error))
		} else if htmlDir != "" {
			if err := writeAnswerHTML(htmlDir, result.Answer); err != nil {
				logger.Warn("write answer html failed", zap.Error(err))
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}

func printSources(sources []graph.ChatSource) {
	if len(sources) == 0 {
		return
	}
	fmt.Println()
	for _, s := range sources {
		label := s.FileName
		if label == "" {
			label = s.URL
		}
		fmt.Println(sourceStyle.Render(fmt.Sprintf("  [source] %s (score %.2f)", label, s.Score)))
	}
}

func printSuggestions(suggestions []string) {
	if len(suggestions) == 0 {
		return
	}
	for _, s := range suggestions {
		fmt.Println(suggestStyle.Render("  ~ " + s))
	}
}

// renderMarkdown converts an answer written in markdown into standalone
// HTML, for callers that want to save or open a richer rendering of the
// same answer the terminal prints as plain text.
func renderMarkdown(answer string) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(answer))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})

	return markdown.Render(doc, renderer)
}

func writeAnswerHTML(dir, answer string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create html dir: %w", err)
	}
	path := fmt.Sprintf("%s/answer-%d.html", dir, time.Now().UnixNano())
	return os.WriteFile(path, renderMarkdown(answer), 0o644)
}

func filepathBase(path string) string {
	idx := strings.LastIndexAny(path, "/\\")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

func filepathExt(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return ""
	}
	return path[idx+1:]
}
