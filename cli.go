package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"go-rag-assistant/config"
	"go-rag-assistant/logger"
	"go-rag-assistant/rag"
)

var version = "dev"

type app struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "ragqa",
		Short:        "Prepare documents for retrieval and ask an LLM about them",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger.SetVerbose(a.verbose)
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (json, yaml or toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "print debug output to stderr")

	root.AddCommand(
		a.versionCmd(),
		a.loadCmd(),
		a.cleanCmd(),
		a.chunkCmd(),
		a.askCmd(),
		a.serveCmd(),
	)
	return root
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ragqa version %s\n", version)
		},
	}
}

func (a *app) loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <path>",
		Short: "Print the text extracted from a document",
		Long:  `Extracts text from .txt, .md and .pdf files. Documents without usable text print a bracketed diagnostic instead.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := rag.NewLoader().Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func (a *app) cleanCmd() *cobra.Command {
	var (
		file        string
		keepSpecial bool
	)
	cmd := &cobra.Command{
		Use:   "clean [text]",
		Short: "Lowercase and normalise text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			switch {
			case file != "":
				res, err := rag.NewLoader().LoadDocument(file)
				if err != nil {
					return err
				}
				if !res.OK() {
					return fmt.Errorf("%s has no usable text: %s", file, res.Reason)
				}
				text = res.Text
			case len(args) == 1:
				text = args[0]
			default:
				return errors.New("provide text or --file")
			}

			remove := a.cfg.Cleaning.RemoveSpecialChars && !keepSpecial
			fmt.Fprintln(cmd.OutOrStdout(), rag.NewCleaner(remove).Clean(text))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "clean the text of this document")
	cmd.Flags().BoolVar(&keepSpecial, "keep-special", false, "keep characters outside the allow-list")
	return cmd
}

func (a *app) chunkCmd() *cobra.Command {
	var (
		size, overlap int
		strategy      string
		raw, asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "chunk <path>",
		Short: "Split a document into overlapping chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chunking := a.cfg.Chunking
			if cmd.Flags().Changed("size") {
				chunking.Size = size
			}
			if cmd.Flags().Changed("overlap") {
				chunking.Overlap = overlap
			}
			if cmd.Flags().Changed("strategy") {
				chunking.Strategy = strings.ToLower(strategy)
			}

			p, err := buildPipeline(chunking, a.cfg.Cleaning, raw)
			if err != nil {
				return err
			}
			res, err := p.Run(args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			if res.Status != rag.StatusOK {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n", res.Reason)
				return nil
			}
			for _, c := range res.Chunks {
				fmt.Fprintf(cmd.OutOrStdout(), "--- %s (%d chars) ---\n%s\n", c.ID, len([]rune(c.Content)), c.Content)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", rag.DefaultChunkSize, "chunk size in characters")
	cmd.Flags().IntVar(&overlap, "overlap", rag.DefaultChunkOverlap, "overlap between chunks in characters")
	cmd.Flags().StringVar(&strategy, "strategy", config.StrategyFixed, "splitting strategy: fixed or sentence")
	cmd.Flags().BoolVar(&raw, "raw", false, "chunk the extracted text without cleaning it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print chunks as JSON")
	return cmd
}

func (a *app) askCmd() *cobra.Command {
	var (
		contextText string
		contextFile string
		maxTokens   int
		temperature float64
	)
	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Answer a question from a context with the configured LLM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newLLMClient(a.cfg.LLM)
			if err != nil {
				return err
			}

			if contextFile != "" {
				res, err := rag.NewLoader().LoadDocument(contextFile)
				if err != nil {
					return err
				}
				if !res.OK() {
					return fmt.Errorf("%s has no usable text: %s", contextFile, res.Reason)
				}
				contextText = res.Text
			}

			opts := rag.AnswerOptions{MaxTokens: a.cfg.LLM.MaxTokens, Temperature: a.cfg.LLM.Temperature}
			if cmd.Flags().Changed("max-tokens") {
				opts.MaxTokens = maxTokens
			}
			if cmd.Flags().Changed("temperature") {
				opts.Temperature = temperature
			}

			fmt.Fprintln(cmd.OutOrStdout(), client.Answer(cmd.Context(), args[0], contextText, opts))
			return nil
		},
	}
	defaults := rag.DefaultAnswerOptions()
	cmd.Flags().StringVar(&contextText, "context", "", "context text to answer from")
	cmd.Flags().StringVar(&contextFile, "context-file", "", "document to use as context")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", defaults.MaxTokens, "maximum tokens in the answer")
	cmd.Flags().Float64Var(&temperature, "temperature", defaults.Temperature, "sampling temperature")
	cmd.MarkFlagsMutuallyExclusive("context", "context-file")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := buildPipeline(a.cfg.Chunking, a.cfg.Cleaning, false)
			if err != nil {
				return err
			}

			var llm Answerer
			if a.cfg.LLM.Configured() {
				client, err := newLLMClient(a.cfg.LLM)
				if err != nil {
					return err
				}
				llm = client
			} else {
				logger.Warn("no LLM endpoint configured, /ask is disabled")
			}

			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Address = addr
			}
			srv := NewServer(p, llm, rag.AnswerOptions{MaxTokens: a.cfg.LLM.MaxTokens, Temperature: a.cfg.LLM.Temperature})

			log.Printf("Server running on %s", a.cfg.Server.Address)
			return http.ListenAndServe(a.cfg.Server.Address, srv.routes())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func buildPipeline(chunking config.ChunkingConfig, cleaning config.CleaningConfig, raw bool) (*rag.Pipeline, error) {
	if err := chunking.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrInvalidArgument, err)
	}

	var splitter rag.Splitter = rag.FixedSizeSplitter{}
	if chunking.Strategy == config.StrategySentence {
		splitter = rag.SentenceSplitter{}
	}

	p := &rag.Pipeline{
		Loader: rag.NewLoader(),
		Structurizer: rag.NewStructurizer(
			rag.WithChunkSize(chunking.Size),
			rag.WithChunkOverlap(chunking.Overlap),
			rag.WithSplitter(splitter),
		),
	}
	if !raw {
		p.Cleaner = rag.NewCleaner(cleaning.RemoveSpecialChars)
	}
	return p, nil
}

func newLLMClient(cfg config.LLMConfig) (*rag.LLMClient, error) {
	if !cfg.Configured() {
		return nil, errors.New("no LLM endpoint configured: set DEEPSEEK_API_BASE_URL or llm.base_url")
	}

	llmCfg := rag.LLMConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}
	if cfg.PromptsFile != "" {
		prompts, err := rag.LoadPrompts(cfg.PromptsFile)
		if err != nil {
			return nil, err
		}
		llmCfg.Prompts = &prompts
	}
	return rag.NewLLMClient(llmCfg)
}
