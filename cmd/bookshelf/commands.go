package main

import (
	"bookshelf/internal/core/domain/models"
	"bookshelf/internal/core/domain/ports"
	"bookshelf/internal/core/service"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRootCmd(build appBuilder) *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "bookshelf",
		Short:         "Personal reading tracker",
		Long:          "Bookshelf keeps track of the books you are reading, have read and want to read,\nfinds new ones in an online catalog and asks an AI model for recommendations.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (yaml, json or toml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")

	// withApp loads the library before running fn and releases it afterwards.
	withApp := func(fn func(cmd *cobra.Command, lib *service.Library, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) (err error) {
			a, err := build(cmd.Context(), configPath, logLevel)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, a.close()) }()

			if err := a.lib.LoadLibrary(cmd.Context()); err != nil {
				return fmt.Errorf("%s: %w", a.lib.Snapshot().Load.Message, err)
			}
			return fn(cmd, a.lib, args)
		}
	}

	cmd.AddCommand(
		listCmd(withApp),
		showCmd(withApp),
		searchCmd(withApp),
		addCmd(withApp),
		setCmd(withApp),
		removeCmd(withApp),
		recommendCmd(withApp),
	)
	return cmd
}

type runner func(fn func(cmd *cobra.Command, lib *service.Library, args []string) error) func(*cobra.Command, []string) error

func listCmd(withApp runner) *cobra.Command {
	var category, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the books in your library",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, lib *service.Library, _ []string) error {
			books := lib.Snapshot().Books
			if category != "" {
				c, err := models.ParseCategory(category)
				if err != nil {
					return err
				}
				if err := lib.SetTab(c); err != nil {
					return err
				}
				books = lib.ByCategory(c)
			}
			if cmd.Flags().Changed("status") {
				s, err := models.ParsePhysicalStatus(status)
				if err != nil {
					return err
				}
				books = intersect(books, lib.ByPhysicalStatus(s))
			}

			if len(books) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No books.")
				return nil
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		}),
	}
	cmd.Flags().StringVar(&category, "category", "", "Only books in this category (reading, read, want-to-read)")
	cmd.Flags().StringVar(&status, "status", "", "Only books with this physical status (owned, want-to-buy, none)")
	return cmd
}

func intersect(books, keep []models.Book) []models.Book {
	ids := make(map[string]bool, len(keep))
	for _, b := range keep {
		ids[b.ID] = true
	}
	out := []models.Book{}
	for _, b := range books {
		if ids[b.ID] {
			out = append(out, b)
		}
	}
	return out
}

func showCmd(withApp runner) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show the details of a book",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, lib *service.Library, args []string) error {
			if err := lib.SelectBook(args[0]); err != nil {
				return err
			}
			b := lib.Snapshot().Details

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "ID:\t%s\n", b.ID)
			fmt.Fprintf(w, "Title:\t%s\n", b.Title)
			fmt.Fprintf(w, "Author:\t%s\n", b.Author)
			fmt.Fprintf(w, "Publisher:\t%s\n", b.Publisher)
			if b.Series != "" {
				fmt.Fprintf(w, "Series:\t%s\n", b.Series)
			}
			fmt.Fprintf(w, "Category:\t%s\n", b.Category.Label())
			fmt.Fprintf(w, "Physical copy:\t%s\n", b.PhysicalStatus.Label())
			fmt.Fprintf(w, "Description:\t%s\n", b.Description)
			return w.Flush()
		}),
	}
}

func searchCmd(withApp runner) *cobra.Command {
	var (
		authorOnly bool
		addIndex   int
		category   string
		status     string
	)

	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Search the online catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, lib *service.Library, args []string) error {
			if err := lib.SetView(service.ViewSearch); err != nil {
				return err
			}
			results, err := lib.SearchCatalog(cmd.Context(), strings.Join(args, " "), authorOnly)
			if err != nil {
				if msg := lib.Snapshot().Search.State.Message; msg != "" {
					return fmt.Errorf("%s: %w", msg, err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "Nothing found.")
				return nil
			}

			if addIndex == 0 {
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "#\tTITLE\tAUTHOR\tPUBLISHER")
				for i, r := range results {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, r.Title, r.Author, r.Publisher)
				}
				return w.Flush()
			}

			if addIndex < 1 || addIndex > len(results) {
				return fmt.Errorf("--add must be between 1 and %d", len(results))
			}
			cat, st, err := parseShelf(category, status)
			if err != nil {
				return err
			}

			raw := results[addIndex-1]
			lib.SelectCandidate(raw)
			added, err := lib.CommitCandidate(cmd.Context(), raw, cat, st)
			if err != nil {
				return err
			}
			reportAdded(out, raw.Title, cat, added)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&authorOnly, "author", false, "Search by author only")
	cmd.Flags().IntVar(&addIndex, "add", 0, "Add the N-th result to the library")
	cmd.Flags().StringVar(&category, "category", string(models.CategoryWantToRead), "Category for --add")
	cmd.Flags().StringVar(&status, "status", "", "Physical status for --add")
	return cmd
}

func addCmd(withApp runner) *cobra.Command {
	var (
		entry    models.ManualEntry
		category string
		status   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book by hand",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, lib *service.Library, _ []string) error {
			cat, st, err := parseShelf(category, status)
			if err != nil {
				return err
			}

			lib.OpenManualAdd()
			raw, err := lib.SubmitManualEntry(entry)
			if err != nil {
				return err
			}
			added, err := lib.CommitCandidate(cmd.Context(), raw, cat, st)
			if err != nil {
				return err
			}
			reportAdded(cmd.OutOrStdout(), raw.Title, cat, added)
			if added {
				fmt.Fprintf(cmd.OutOrStdout(), "ID: %s\n", raw.ID)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&entry.Title, "title", "", "Title (required)")
	cmd.Flags().StringVar(&entry.Author, "author", "", "Author (required)")
	cmd.Flags().StringVar(&entry.Description, "description", "", "Description")
	cmd.Flags().StringVar(&entry.Publisher, "publisher", "", "Publisher")
	cmd.Flags().StringVar(&entry.Series, "series", "", "Series")
	cmd.Flags().StringVar(&category, "category", "", "Category (reading, read, want-to-read)")
	cmd.Flags().StringVar(&status, "status", "", "Physical status (owned, want-to-buy)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func setCmd(withApp runner) *cobra.Command {
	var (
		category    string
		status      string
		clearStatus bool
	)

	cmd := &cobra.Command{
		Use:   "set ID",
		Short: "Move a book to another category or change its physical status",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, lib *service.Library, args []string) error {
			b, ok := lib.Book(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", ports.ErrNotFound, args[0])
			}

			if category != "" {
				c, err := models.ParseCategory(category)
				if err != nil {
					return err
				}
				b.Category = c
			}
			if status != "" {
				s, err := models.ParsePhysicalStatus(status)
				if err != nil {
					return err
				}
				b.PhysicalStatus = s
			}
			if clearStatus {
				b.PhysicalStatus = models.PhysicalStatusNone
			}

			if err := lib.UpdateInLibrary(cmd.Context(), b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%q: %s, %s\n", b.Title, b.Category.Label(), b.PhysicalStatus.Label())
			return nil
		}),
	}
	cmd.Flags().StringVar(&category, "category", "", "New category")
	cmd.Flags().StringVar(&status, "status", "", "New physical status")
	cmd.Flags().BoolVar(&clearStatus, "clear-status", false, "Stop tracking the physical copy")
	cmd.MarkFlagsMutuallyExclusive("status", "clear-status")
	cmd.MarkFlagsOneRequired("category", "status", "clear-status")
	return cmd
}

func removeCmd(withApp runner) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a book from the library",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, lib *service.Library, args []string) error {
			b, known := lib.Book(args[0])
			if err := lib.RemoveFromLibrary(cmd.Context(), args[0]); err != nil {
				return err
			}
			if known {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %q.\n", b.Title)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to remove.")
			}
			return nil
		}),
	}
}

func recommendCmd(withApp runner) *cobra.Command {
	var accept []int

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Get book recommendations based on what you read",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, lib *service.Library, _ []string) error {
			if err := lib.SetView(service.ViewRecommendations); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			items, err := lib.RequestRecommendations(cmd.Context())
			if errors.Is(err, ports.ErrPreconditionNotMet) {
				fmt.Fprintln(out, lib.Snapshot().Recommendations.Notice)
				return nil
			}
			if err != nil {
				return fmt.Errorf("%s: %w", lib.Snapshot().Recommendations.State.Message, err)
			}

			for _, n := range accept {
				if n < 1 || n > len(items) {
					return fmt.Errorf("--accept must be between 1 and %d", len(items))
				}
				if _, err := lib.AcceptRecommendation(cmd.Context(), items[n-1].Recommendation); err != nil {
					return err
				}
			}

			for i, r := range lib.Snapshot().Recommendations.Items {
				mark := " "
				if r.IsAddedToWantToRead {
					mark = "✓"
				}
				fmt.Fprintf(out, "%d. [%s] %s by %s\n   %s\n", i+1, mark, r.Title, r.Author, r.Reason)
			}
			return nil
		}),
	}
	cmd.Flags().IntSliceVar(&accept, "accept", nil, "Add the N-th recommendation to Want to read (repeatable)")
	return cmd
}

func parseShelf(category, status string) (models.Category, models.PhysicalStatus, error) {
	c, err := models.ParseCategory(category)
	if err != nil {
		return "", "", err
	}
	s, err := models.ParsePhysicalStatus(status)
	if err != nil {
		return "", "", err
	}
	return c, s, nil
}

func reportAdded(out io.Writer, title string, c models.Category, added bool) {
	if added {
		fmt.Fprintf(out, "Added %q to %s.\n", title, c.Label())
		return
	}
	fmt.Fprintf(out, "%q is already in your library.\n", title)
}

func printBooks(out io.Writer, books []models.Book) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tCATEGORY\tCOPY")
	for _, b := range books {
		copyStatus := "-"
		if b.PhysicalStatus != models.PhysicalStatusNone {
			copyStatus = b.PhysicalStatus.Label()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Title, b.Author, b.Category.Label(), copyStatus)
	}
	_ = w.Flush()
}
