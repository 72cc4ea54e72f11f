package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/libadmin/internal/constants"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
	"github.com/fivetwenty-io/libadmin/pkg/libclient"
)

// ResourceConfig describes the commands generated for one collection.
type ResourceConfig[T any] struct {
	Name     string   // e.g. "books"
	Singular string   // e.g. "book"
	Aliases  []string // e.g. []string{"book", "b"}
	API      func(client libadmin.Client) libadmin.CollectionAPI[T]
	Header   []string
	Row      func(item T) []string

	// FilterFlags maps extra list flags to query filter keys.
	FilterFlags map[string]string
}

// NewResourceCommands creates the command groups of every collection.
func NewResourceCommands() []*cobra.Command {
	return []*cobra.Command{
		newResourceCommand(booksResource()),
		newResourceCommand(authorsResource()),
		newResourceCommand(studentsResource()),
		newResourceCommand(categoriesResource()),
		newResourceCommand(publishersResource()),
		newResourceCommand(loansResource()),
	}
}

func booksResource() ResourceConfig[libadmin.Book] {
	return ResourceConfig[libadmin.Book]{
		Name:     "books",
		Singular: "book",
		Aliases:  []string{"book"},
		API:      func(c libadmin.Client) libadmin.CollectionAPI[libadmin.Book] { return c.Books() },
		Header:   []string{"ID", "Code", "Title", "Author", "Category", "Quantity"},
		Row: func(b libadmin.Book) []string {
			return []string{b.EntityID(), b.Code, b.DisplayTitle(), b.Author, b.Category, strconv.Itoa(b.Quantity)}
		},
	}
}

func authorsResource() ResourceConfig[libadmin.Author] {
	return ResourceConfig[libadmin.Author]{
		Name:     "authors",
		Singular: "author",
		Aliases:  []string{"author"},
		API:      func(c libadmin.Client) libadmin.CollectionAPI[libadmin.Author] { return c.Authors() },
		Header:   []string{"ID", "Name", "Nationality"},
		Row: func(a libadmin.Author) []string {
			return []string{a.EntityID(), a.Name, a.Nationality}
		},
	}
}

func studentsResource() ResourceConfig[libadmin.Student] {
	return ResourceConfig[libadmin.Student]{
		Name:     "students",
		Singular: "student",
		Aliases:  []string{"student"},
		API:      func(c libadmin.Client) libadmin.CollectionAPI[libadmin.Student] { return c.Students() },
		Header:   []string{"ID", "Student", "Faculty", "Class", "Status"},
		Row: func(s libadmin.Student) []string {
			return []string{s.EntityID(), s.Label(), s.Faculty, s.Class, s.Status}
		},
	}
}

func categoriesResource() ResourceConfig[libadmin.Category] {
	return ResourceConfig[libadmin.Category]{
		Name:     "categories",
		Singular: "category",
		Aliases:  []string{"category"},
		API:      func(c libadmin.Client) libadmin.CollectionAPI[libadmin.Category] { return c.Categories() },
		Header:   []string{"ID", "Code", "Name"},
		Row: func(c libadmin.Category) []string {
			return []string{c.EntityID(), c.Code, c.Name}
		},
	}
}

func publishersResource() ResourceConfig[libadmin.Publisher] {
	return ResourceConfig[libadmin.Publisher]{
		Name:     "publishers",
		Singular: "publisher",
		Aliases:  []string{"publisher"},
		API:      func(c libadmin.Client) libadmin.CollectionAPI[libadmin.Publisher] { return c.Publishers() },
		Header:   []string{"ID", "Name", "Description"},
		Row: func(p libadmin.Publisher) []string {
			return []string{p.EntityID(), p.Name, p.Description}
		},
	}
}

func loansResource() ResourceConfig[libadmin.BookLoan] {
	return ResourceConfig[libadmin.BookLoan]{
		Name:     "loans",
		Singular: "loan",
		Aliases:  []string{"loan", "book-loans"},
		API:      func(c libadmin.Client) libadmin.CollectionAPI[libadmin.BookLoan] { return c.Loans() },
		Header:   []string{"ID", "Student", "Book", "Borrowed", "Due", "Returned", "Fee", "Status"},
		Row: func(l libadmin.BookLoan) []string {
			student := l.StudentName
			if student == "" {
				student = strconv.FormatInt(l.StudentID, 10)
			}

			book := l.BookTitle
			if book == "" {
				book = strconv.FormatInt(l.BookID, 10)
			}

			return []string{
				l.EntityID(), student, book, l.BorrowDate, l.DueDate, l.ReturnDate,
				strconv.FormatFloat(l.Fee, 'f', -1, 64), string(l.Status),
			}
		},
		FilterFlags: map[string]string{
			"status":     "status",
			"student-id": "studentId",
			"book-id":    "bookId",
		},
	}
}

func newResourceCommand[T any](config ResourceConfig[T]) *cobra.Command {
	cmd := &cobra.Command{
		Use:     config.Name,
		Aliases: config.Aliases,
		Short:   "Manage " + config.Name,
		Long:    fmt.Sprintf("List, view, create, update and delete %s", config.Name),
	}

	cmd.AddCommand(newResourceListCommand(config))
	cmd.AddCommand(newResourceGetCommand(config))
	cmd.AddCommand(newResourceCreateCommand(config))
	cmd.AddCommand(newResourceUpdateCommand(config))
	cmd.AddCommand(newResourceDeleteCommand(config))

	return cmd
}

func newResourceListCommand[T any](config ResourceConfig[T]) *cobra.Command {
	var (
		page     int
		size     int
		keyword  string
		sortBy   string
		sortDir  string
		filters  map[string]string
		allPages bool
	)

	flagValues := make(map[string]*string, len(config.FilterFlags))

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + config.Name,
		Long:  fmt.Sprintf("Search %s page by page", config.Name),
		RunE: func(cmd *cobra.Command, args []string) error {
			if size <= 0 {
				size = pageSizeSetting()
			}

			query := libadmin.Query{
				Page:    page,
				Size:    min(size, constants.MaxPageSize),
				Keyword: keyword,
				SortBy:  sortBy,
				SortDir: sortDir,
				Filters: map[string]string{},
			}

			for key, value := range filters {
				query.Filters[key] = value
			}

			for flagName, filterKey := range config.FilterFlags {
				if value := *flagValues[flagName]; value != "" {
					query.Filters[filterKey] = value
				}
			}

			return runWithClient(cmd, func(ctx context.Context, client libadmin.Client) error {
				controller := libclient.NewController(client, config.Name, config.API(client))

				result, err := collectPages(ctx, controller, query, allPages)
				if err != nil {
					return err
				}

				return renderPage(cmd.OutOrStdout(), config, result, allPages)
			})
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "zero-based page number")
	cmd.Flags().IntVar(&size, "size", 0, "page size (defaults to page_size)")
	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "search keyword")
	cmd.Flags().StringVar(&sortBy, "sort-by", "", "field to sort by")
	cmd.Flags().StringVar(&sortDir, "sort-dir", "", "sort direction (asc, desc)")
	cmd.Flags().StringToStringVar(&filters, "filter", nil, "additional filters (key=value)")
	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")

	for flagName := range config.FilterFlags {
		value := new(string)
		flagValues[flagName] = value
		cmd.Flags().StringVar(value, flagName, "", "filter by "+flagName)
	}

	return cmd
}

// collectPages runs query and, when allPages is set, every following page.
func collectPages[T any](
	ctx context.Context,
	controller *libadmin.ResourceController[T],
	query libadmin.Query,
	allPages bool,
) (*libadmin.Page[T], error) {
	first, err := controller.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", controller.Name(), err)
	}

	if !allPages {
		return first, nil
	}

	result := &libadmin.Page[T]{
		Content:       append([]T{}, first.Content...),
		TotalElements: first.TotalElements,
		PageNumber:    first.PageNumber,
		PageSize:      first.PageSize,
	}

	// Pages are counted locally and bounded by the first page's total.
	totalPages := first.TotalPages()
	current := first

	for next := query.Page + 1; next < totalPages && !current.IsEmpty(); next++ {
		current, err = controller.Search(ctx, query.WithPage(next))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d of %s: %w", next, controller.Name(), err)
		}

		if current.PageNumber != next {
			return nil, fmt.Errorf("%w: asked for page %d of %s, got page %d",
				constants.ErrUnexpectedPage, next, controller.Name(), current.PageNumber)
		}

		result.Content = append(result.Content, current.Content...)
	}

	return result, nil
}

func renderPage[T any](w io.Writer, config ResourceConfig[T], page *libadmin.Page[T], allPages bool) error {
	renderer := OutputRenderer[*libadmin.Page[T]]{
		RenderJSON: StandardJSONRenderer[*libadmin.Page[T]],
		RenderYAML: StandardYAMLRenderer[*libadmin.Page[T]],
		RenderTable: func(w io.Writer, page *libadmin.Page[T]) error {
			if page.IsEmpty() {
				_, _ = fmt.Fprintf(w, "No %s found\n", config.Name)

				return nil
			}

			rows := make([][]string, 0, len(page.Content))
			for _, item := range page.Content {
				rows = append(rows, config.Row(item))
			}

			err := renderRows(w, config.Header, rows)
			if err != nil {
				return err
			}

			if allPages {
				_, _ = fmt.Fprintf(w, "\n%d %s\n", len(page.Content), config.Name)
			} else {
				_, _ = fmt.Fprintf(w, "\nPage %d of %d (%d total)\n",
					page.PageNumber+1, max(page.TotalPages(), 1), page.TotalElements)
			}

			return nil
		},
	}

	return renderer.Render(w, page, viper.GetString(keyOutput))
}

func newResourceGetCommand[T any](config ResourceConfig[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Get " + config.Singular + " details",
		Long:  fmt.Sprintf("Display detailed information about a specific %s", config.Singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithClient(cmd, func(ctx context.Context, client libadmin.Client) error {
				item, err := config.API(client).Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get %s %s: %w", config.Singular, args[0], err)
				}

				return renderItem(cmd.OutOrStdout(), config, item)
			})
		},
	}
}

func newResourceCreateCommand[T any](config ResourceConfig[T]) *cobra.Command {
	var data, file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a " + config.Singular,
		Long:  fmt.Sprintf("Create a %s from a JSON or YAML payload given with --data or --file", config.Singular),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := readPayload[T](data, file)
			if err != nil {
				return err
			}

			return runWithClient(cmd, func(ctx context.Context, client libadmin.Client) error {
				controller := libclient.NewController(client, config.Name, config.API(client),
					libadmin.WithInitialQuery(libadmin.Query{Page: 0, Size: pageSizeSetting()}))

				created, err := controller.Create(ctx, item)
				if err != nil {
					return describeMutationError("create", config.Singular, err)
				}

				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Successfully created %s\n", config.Singular)

				return renderItem(cmd.OutOrStdout(), config, created)
			})
		},
	}

	addPayloadFlags(cmd, &data, &file)

	return cmd
}

func newResourceUpdateCommand[T any](config ResourceConfig[T]) *cobra.Command {
	var data, file string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a " + config.Singular,
		Long:  fmt.Sprintf("Replace a %s with a JSON or YAML payload given with --data or --file", config.Singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := readPayload[T](data, file)
			if err != nil {
				return err
			}

			return runWithClient(cmd, func(ctx context.Context, client libadmin.Client) error {
				controller := libclient.NewController(client, config.Name, config.API(client),
					libadmin.WithInitialQuery(libadmin.Query{Page: 0, Size: pageSizeSetting()}))

				updated, err := controller.Update(ctx, args[0], item)
				if err != nil {
					return describeMutationError("update", config.Singular, err)
				}

				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Successfully updated %s %s\n", config.Singular, args[0])

				return renderItem(cmd.OutOrStdout(), config, updated)
			})
		},
	}

	addPayloadFlags(cmd, &data, &file)

	return cmd
}

func newResourceDeleteCommand[T any](config ResourceConfig[T]) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a " + config.Singular,
		Long:  fmt.Sprintf("Delete a %s. Requires a role allowed to delete records", config.Singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				answer, err := promptLine(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout(),
					fmt.Sprintf("Really delete %s %s? [y/N]: ", config.Singular, args[0]))
				if err != nil {
					return err
				}

				if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Delete cancelled")

					return nil
				}
			}

			return runWithClient(cmd, func(ctx context.Context, client libadmin.Client) error {
				err := requireCapability(ctx, client, libadmin.CapDeleteRecords)
				if err != nil {
					return err
				}

				controller := libclient.NewController(client, config.Name, config.API(client),
					libadmin.WithInitialQuery(libadmin.Query{Page: 0, Size: pageSizeSetting()}))

				err = controller.Remove(ctx, args[0])
				if err != nil {
					return describeMutationError("delete", config.Singular, err)
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully deleted %s %s\n", config.Singular, args[0])

				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")

	return cmd
}

func addPayloadFlags(cmd *cobra.Command, data, file *string) {
	cmd.Flags().StringVarP(data, "data", "d", "", "payload as inline JSON or YAML")
	cmd.Flags().StringVarP(file, "file", "F", "", "read the payload from a JSON or YAML file")
	cmd.MarkFlagsMutuallyExclusive("data", "file")
}

// readPayload decodes an item from inline data or a file. JSON is detected by
// a leading '{'; anything else is parsed as YAML.
func readPayload[T any](data, file string) (*T, error) {
	raw := []byte(data)

	if file != "" {
		var err error

		raw, err = os.ReadFile(filepath.Clean(file))
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, constants.ErrPayloadRequired
	}

	var item T

	if strings.HasPrefix(trimmed, "{") {
		err := json.Unmarshal([]byte(trimmed), &item)
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSON payload: %w", err)
		}

		return &item, nil
	}

	err := yaml.Unmarshal([]byte(trimmed), &item)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML payload: %w", err)
	}

	return &item, nil
}

// describeMutationError adds the rejected fields of a validation error.
func describeMutationError(action, singular string, err error) error {
	respErr := &libadmin.ResponseError{}
	if libadmin.IsValidation(err) && errors.As(err, &respErr) && len(respErr.FieldErrors) > 0 {
		parts := make([]string, 0, len(respErr.FieldErrors))
		for _, field := range respErr.FieldErrors {
			parts = append(parts, field.Field+": "+field.Message)
		}

		return fmt.Errorf("failed to %s %s (%s): %w", action, singular, strings.Join(parts, "; "), err)
	}

	return fmt.Errorf("failed to %s %s: %w", action, singular, err)
}

func renderItem[T any](w io.Writer, config ResourceConfig[T], item *T) error {
	renderer := OutputRenderer[*T]{
		RenderJSON: StandardJSONRenderer[*T],
		RenderYAML: StandardYAMLRenderer[*T],
		RenderTable: func(w io.Writer, item *T) error {
			row := config.Row(*item)
			pairs := make([][2]string, 0, len(row))

			for i, value := range row {
				pairs = append(pairs, [2]string{config.Header[i], value})
			}

			return renderProperties(w, pairs)
		},
	}

	return renderer.Render(w, item, viper.GetString(keyOutput))
}
