package admintools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"git.handmade.network/hmn/tablelog/src/models"
	"git.handmade.network/hmn/tablelog/src/sessiondata"
	"git.handmade.network/hmn/tablelog/src/utils"
	"git.handmade.network/hmn/tablelog/src/website"
	"github.com/spf13/cobra"
)

func init() {
	adminCommand := &cobra.Command{
		Use:   "admin",
		Short: "Miscellaneous admin commands",
	}
	website.WebsiteCommand.AddCommand(adminCommand)

	addCreateSessionCommand(adminCommand)
	addListSessionsCommand(adminCommand)
	addDeleteSessionCommand(adminCommand)
}

func addCreateSessionCommand(adminCommand *cobra.Command) {
	createSessionCommand := &cobra.Command{
		Use:   "create",
		Short: "Record a new session",
		Run: func(cmd *cobra.Command, args []string) {
			title, _ := cmd.Flags().GetString("title")
			system, _ := cmd.Flags().GetString("system")
			players, _ := cmd.Flags().GetString("players")
			dateStr, _ := cmd.Flags().GetString("date")

			fields := models.SessionCreate{
				Title:   title,
				System:  system,
				Players: players,
			}
			if dateStr != "" {
				date, err := time.Parse(time.RFC3339, dateStr)
				if err != nil {
					fmt.Printf("Date must be RFC 3339, e.g. 2024-03-01T19:30:00Z: %v\n", err)
					os.Exit(1)
				}
				fields.Date = &date
			}

			ctx := context.Background()
			store := mustOpenStore(ctx)
			defer store.Close()

			record, err := store.CreateSession(ctx, fields)
			if err != nil {
				var validationErr *sessiondata.ValidationError
				if errors.As(err, &validationErr) {
					fmt.Printf("%s\n", validationErr.Message)
					os.Exit(1)
				}
				panic(err)
			}

			fmt.Printf("Created session %d: %s\n", record.ID, record.Title)
		},
	}
	createSessionCommand.Flags().String("title", "", "")
	createSessionCommand.Flags().String("system", "", "")
	createSessionCommand.Flags().String("players", "", "")
	createSessionCommand.Flags().String("date", "", "RFC 3339 timestamp (default now)")
	createSessionCommand.MarkFlagRequired("title")
	createSessionCommand.MarkFlagRequired("system")
	createSessionCommand.MarkFlagRequired("players")
	adminCommand.AddCommand(createSessionCommand)
}

func addListSessionsCommand(adminCommand *cobra.Command) {
	listSessionsCommand := &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recent first",
		Run: func(cmd *cobra.Command, args []string) {
			q := sessiondata.DefaultSessionQuery()
			q.Q, _ = cmd.Flags().GetString("q")
			q.SortBy, _ = cmd.Flags().GetString("sort_by")
			q.Order, _ = cmd.Flags().GetString("order")
			q.Page, _ = cmd.Flags().GetInt("page")
			q.Limit, _ = cmd.Flags().GetInt("limit")

			ctx := context.Background()
			store := mustOpenStore(ctx)
			defer store.Close()

			page, err := sessiondata.FetchSessionPage(ctx, store, q)
			if err != nil {
				var argErr *sessiondata.ArgumentError
				if errors.As(err, &argErr) {
					fmt.Printf("%s\n", argErr.Message)
					os.Exit(1)
				}
				panic(err)
			}

			printSessions(page, q)
		},
	}
	listSessionsCommand.Flags().String("q", "", "only sessions whose title, system, or players contain this")
	listSessionsCommand.Flags().String("sort_by", sessiondata.DefaultSortBy, fmt.Sprintf("one of %v", sessiondata.AllowedSortBy))
	listSessionsCommand.Flags().String("order", sessiondata.DefaultOrder, fmt.Sprintf("one of %v", sessiondata.AllowedOrders))
	listSessionsCommand.Flags().Int("page", sessiondata.DefaultPage, "")
	listSessionsCommand.Flags().Int("limit", sessiondata.DefaultLimit, "")
	adminCommand.AddCommand(listSessionsCommand)
}

func addDeleteSessionCommand(adminCommand *cobra.Command) {
	deleteSessionCommand := &cobra.Command{
		Use:   "delete [session id]",
		Short: "Permanently delete a session",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 {
				fmt.Printf("You must provide a session id.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			id, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Printf("'%s' is not a session id.\n", args[0])
				os.Exit(1)
			}

			ctx := context.Background()
			store := mustOpenStore(ctx)
			defer store.Close()

			err = store.DeleteSession(ctx, id)
			if err != nil {
				if errors.Is(err, sessiondata.NotFound) {
					fmt.Printf("Session %d not found.\n", id)
					os.Exit(1)
				}
				panic(err)
			}

			fmt.Printf("Session %d has been deleted.\n", id)
		},
	}
	adminCommand.AddCommand(deleteSessionCommand)
}

func mustOpenStore(ctx context.Context) sessiondata.Store {
	return utils.Must1(website.OpenStore(ctx))
}

func printSessions(page sessiondata.SessionPage, q sessiondata.SessionQuery) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTITLE\tSYSTEM\tPLAYERS")
	for _, s := range page.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", s.ID, s.Date.Format("2006-01-02 15:04"), s.Title, s.System, s.Players)
	}
	w.Flush()
	fmt.Printf("\nPage %d of %d (%d sessions)\n", q.Page, sessiondata.PageCount(page.Total, q.Limit), page.Total)
}
