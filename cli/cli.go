package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/santiagomed/pagegen/core"
	"github.com/santiagomed/pagegen/fs"
	"github.com/santiagomed/pagegen/llm"
	"github.com/santiagomed/pagegen/seo"
	"github.com/santiagomed/pagegen/server"
	"github.com/santiagomed/pagegen/store"
)

var rootCmd = &cobra.Command{
	Use:   "pagegen",
	Short: "pagegen generates WordPress business pages with AI",
	Long: `pagegen fills block templates with AI-written copy for a business and
publishes the result as a WordPress page with SEO metadata.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errSilent fails the command after the error was already shown.
var errSilent = errors.New("generation failed")

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a page and publish it to WordPress",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, false)
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Generate a page without publishing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, true)
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage page templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), configPath(cmd))
		if err != nil {
			return err
		}
		defer a.Close()

		pageType, _ := cmd.Flags().GetString("type")
		templates, err := a.templates.ListTemplates(cmd.Context(), pageType)
		if err != nil {
			return err
		}
		for _, t := range templates {
			fmt.Printf("%s  %s  %s\n", nameStyle.Render(fmt.Sprintf("%3d", t.ID)), labelStyle.Render(t.Type), t.Name)
		}
		return nil
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a template as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid template id %q", args[0])
		}
		a, err := newApp(cmd.Context(), configPath(cmd))
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := a.templates.GetTemplate(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(t)
	},
}

var templatesInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the built-in templates",
	Long: `Install the built-in landing, about and pricing templates. With --dir they
are written as JSON files to that directory, otherwise into the configured store.
Templates whose name already exists for their type are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := store.Defaults()
		if err != nil {
			return err
		}

		var repo store.Repository
		if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
			repo = store.NewFileStore(fs.NewOsFileSystem(), dir)
		} else {
			a, err := newApp(cmd.Context(), configPath(cmd))
			if err != nil {
				return err
			}
			defer a.Close()
			repo = a.templates
		}

		installed, err := store.Install(cmd.Context(), repo, defaults)
		if err != nil {
			return err
		}
		if len(installed) == 0 {
			fmt.Println("All built-in templates are already installed.")
			return nil
		}
		for _, name := range installed {
			fmt.Printf("Installed %s\n", nameStyle.Render(name))
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <page-id>",
	Short: "Export a generated page as JSON or zip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pageID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid page id %q", args[0])
		}
		a, err := newApp(cmd.Context(), configPath(cmd))
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requirePostgres(); err != nil {
			return err
		}

		data, err := a.service.Export(cmd.Context(), pageID)
		if err != nil {
			return err
		}

		dir, _ := cmd.Flags().GetString("dir")
		if zipped, _ := cmd.Flags().GetBool("zip"); zipped {
			name := fmt.Sprintf("page-%d.zip", pageID)
			var buf bytes.Buffer
			if err := core.WriteExportZip(&buf, pageID, data); err != nil {
				return err
			}
			path := filepath.Join(dir, name)
			if err := fs.NewOsFileSystem().WriteFile(path, buf.Bytes()); err != nil {
				return err
			}
			fmt.Printf("Exported to %s\n", nameStyle.Render(path))
			return nil
		}
		path, err := core.WriteExport(fs.NewOsFileSystem(), dir, pageID, data)
		if err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", nameStyle.Render(path))
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [seo.json]",
	Short: "Score the SEO fields of a page",
	Long: `Score SEO fields read from a JSON file of field names to values, or from
the page history with --page.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var fields seo.Fields
		pageID, _ := cmd.Flags().GetInt64("page")
		switch {
		case len(args) == 1:
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := json.Unmarshal(data, &fields); err != nil {
				return fmt.Errorf("invalid SEO file: %w", err)
			}
		case pageID > 0:
			a, err := newApp(cmd.Context(), configPath(cmd))
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requirePostgres(); err != nil {
				return err
			}
			record, err := a.postgres.GetPage(cmd.Context(), pageID)
			if err != nil {
				return err
			}
			fields = record.SEO
		default:
			return fmt.Errorf("give an SEO file or --page")
		}

		analysis := seo.Analyze(fields)
		fmt.Println(successStyle.Render(fmt.Sprintf("SEO score: %d/100", analysis.Score)))
		for _, issue := range analysis.Issues {
			fmt.Println(errorStyle.Render("- " + issue))
		}
		if tags, _ := cmd.Flags().GetBool("tags"); tags {
			url, _ := cmd.Flags().GetString("url")
			fmt.Print(seo.MetaTags(fields, url))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show page generation statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), configPath(cmd))
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requirePostgres(); err != nil {
			return err
		}

		if user, _ := cmd.Flags().GetInt64("user"); user > 0 {
			stats, err := a.postgres.UserStats(cmd.Context(), user)
			if err != nil {
				return err
			}
			return printJSON(stats)
		}
		stats, err := a.postgres.GlobalStats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(stats)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generation API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, configPath(cmd))
		if err != nil {
			return err
		}
		defer a.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = a.cfg.Server.Addr
		}
		opts := server.Options{
			Addr:         addr,
			Service:      a.service,
			Templates:    a.templates,
			DefaultModel: a.model,
			Logger:       a.logger,
		}
		if a.postgres != nil {
			opts.Stats = a.postgres
		}
		srv := server.New(opts)

		engineCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		a.service.Start(engineCtx)
		defer a.service.Shutdown(5 * time.Second)

		errChan := make(chan error, 1)
		go func() { errChan <- srv.Start() }()
		fmt.Printf("Listening on %s\n", nameStyle.Render(addr))

		select {
		case err := <-errChan:
			return err
		case <-ctx.Done():
		}
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Directory holding config.yaml")

	for _, cmd := range []*cobra.Command{generateCmd, previewCmd} {
		addProfileFlags(cmd)
		cmd.Flags().Int64P("template", "t", 1, "Template ID")
		cmd.Flags().StringP("model", "m", "", "AI model: openai, claude or gemini (default from config)")
	}
	previewCmd.Flags().StringP("output", "o", "", "Write the rendered block markup to this file")

	templatesListCmd.Flags().String("type", "", "Only list templates of this type")
	templatesInstallCmd.Flags().String("dir", "", "Write the templates as JSON files to this directory")
	templatesCmd.AddCommand(templatesListCmd, templatesShowCmd, templatesInstallCmd)

	exportCmd.Flags().String("dir", ".", "Directory to write the export to")
	exportCmd.Flags().Bool("zip", false, "Write a zip with the page content and outline")

	analyzeCmd.Flags().Int64("page", 0, "Analyze the SEO fields recorded for this page ID")
	analyzeCmd.Flags().Bool("tags", false, "Also print the meta tags")
	analyzeCmd.Flags().String("url", "", "Page URL for og:url when printing tags")

	statsCmd.Flags().Int64("user", 0, "Only count this user's profiles and pages")

	serveCmd.Flags().String("addr", "", "Listen address (default from config)")

	rootCmd.AddCommand(generateCmd, previewCmd, templatesCmd, exportCmd, analyzeCmd, statsCmd, serveCmd)
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}

func runGenerate(cmd *cobra.Command, preview bool) error {
	profile, err := parseProfile(cmd)
	if err != nil {
		return err
	}
	templateID, err := cmd.Flags().GetInt64("template")
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), configPath(cmd))
	if err != nil {
		return err
	}
	defer a.Close()

	model := a.model
	if name, _ := cmd.Flags().GetString("model"); name != "" {
		if model, err = llm.ParseModel(name); err != nil {
			return err
		}
	}
	f := genFlags{templateID: templateID, model: model, preview: preview}

	mode, run := core.ModeCreate, a.service.Generate
	if preview {
		if f.output, err = cmd.Flags().GetString("output"); err != nil {
			return err
		}
		mode, run = core.ModePreview, a.service.Preview
	}
	steps := a.service.Steps(mode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.service.Start(ctx)
	defer a.service.Shutdown(5 * time.Second)

	m := newGenerateModel(ctx, run, profile, f, steps, a.logger)
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	if res := final.(generateCmdModel).result; !res.Success && res.Message != "" {
		return errSilent
	}
	return nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func writeMarkup(path, markup string) error {
	return fs.NewOsFileSystem().WriteFile(path, []byte(markup))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if err != errSilent {
			fmt.Fprintln(os.Stderr, lipgloss.NewStyle().Foreground(lipgloss.Color("#FFBA08")).Render(err.Error()))
		}
		os.Exit(1)
	}
}
