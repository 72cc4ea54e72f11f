package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/libadmin/internal/constants"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
	"github.com/fivetwenty-io/libadmin/pkg/libclient"
)

const defaultTypingInterval = 50 * time.Millisecond

// LookupOption is one selectable entry returned by a lookup.
type LookupOption struct {
	ID    string `json:"id"    yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand() *cobra.Command {
	var (
		size     int
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "lookup COLLECTION TEXT...",
		Short: "Find selectable options by keyword",
		Long: `Search a collection the way an autocomplete field does. Each TEXT is typed
after --interval; texts typed within the debounce window replace the previous
one, and only the last settled text is sent to the backend.

Collections: books, authors, students, categories, publishers`,
		Args: cobra.MinimumNArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			window := durationSetting(keyDebounce, constants.DefaultDebounceWindow)
			opts := []libadmin.LookupOption{
				libadmin.WithDebounceWindow(window),
				libadmin.WithLookupSize(size),
			}

			return runWithClient(cmd, func(ctx context.Context, client libadmin.Client) error {
				var (
					options []LookupOption
					err     error
				)

				switch args[0] {
				case "books":
					options, err = runLookup(ctx, client, client.Books(), args[0], args[1:], interval, opts)
				case "authors":
					options, err = runLookup(ctx, client, client.Authors(), args[0], args[1:], interval, opts)
				case "students":
					options, err = runLookup(ctx, client, client.Students(), args[0], args[1:], interval, opts)
				case "categories":
					options, err = runLookup(ctx, client, client.Categories(), args[0], args[1:], interval, opts)
				case "publishers":
					options, err = runLookup(ctx, client, client.Publishers(), args[0], args[1:], interval, opts)
				default:
					return fmt.Errorf("%w: %s", constants.ErrUnknownCollection, args[0])
				}

				if err != nil {
					return err
				}

				return renderLookupOptions(cmd.OutOrStdout(), options)
			})
		},
	}

	cmd.Flags().IntVar(&size, "size", constants.DefaultLookupSize, "number of options to load")
	cmd.Flags().DurationVar(&interval, "interval", defaultTypingInterval, "delay between typed texts")

	return cmd
}

type labeledEntity interface {
	libadmin.Identifiable
	libadmin.Labeled
}

// runLookup feeds texts to a lookup coordinator as if typed one after another
// and returns the options of the query that settled.
func runLookup[T labeledEntity](
	ctx context.Context,
	client libadmin.Client,
	api libadmin.CollectionAPI[T],
	name string,
	texts []string,
	interval time.Duration,
	opts []libadmin.LookupOption,
) ([]LookupOption, error) {
	controller := libclient.NewController(client, name, api)

	lookup := controller.NewLookup(opts...)
	defer lookup.Close()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		settled *libadmin.Page[T]
		errs    []error
	)

	for i, text := range texts {
		if i > 0 {
			time.Sleep(interval)
		}

		wg.Add(1)

		go func() {
			defer wg.Done()

			page, err := lookup.Query(ctx, text)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case errors.Is(err, libadmin.ErrSuperseded):
			case err != nil:
				errs = append(errs, fmt.Errorf("looking up %q: %w", text, err))
			default:
				settled = page
			}
		}()
	}

	wg.Wait()

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	options := []LookupOption{}

	if settled != nil {
		for _, item := range settled.Content {
			options = append(options, LookupOption{ID: item.EntityID(), Label: item.Label()})
		}
	}

	return options, nil
}

func renderLookupOptions(w io.Writer, options []LookupOption) error {
	renderer := OutputRenderer[[]LookupOption]{
		RenderJSON: StandardJSONRenderer[[]LookupOption],
		RenderYAML: StandardYAMLRenderer[[]LookupOption],
		RenderTable: func(w io.Writer, options []LookupOption) error {
			if len(options) == 0 {
				_, _ = fmt.Fprintln(w, "No options found")

				return nil
			}

			rows := make([][]string, 0, len(options))
			for _, option := range options {
				rows = append(rows, []string{option.ID, option.Label})
			}

			return renderRows(w, []string{"ID", "Label"}, rows)
		},
	}

	return renderer.Render(w, options, viper.GetString(keyOutput))
}
