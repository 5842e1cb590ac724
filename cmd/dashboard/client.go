package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/paccolamano/dashkit/dashboard"
	"github.com/paccolamano/dashkit/fetch"
	"github.com/paccolamano/dashkit/format"
	"github.com/paccolamano/dashkit/handlers/qparams"
	"github.com/paccolamano/dashkit/handlers/tracer"
	"github.com/paccolamano/dashkit/utility"
)

var urlFlag = &cli.StringFlag{
	Name:    "url",
	Aliases: []string{"u"},
	Usage:   "base URL of a running dashboard",
	Value:   "http://localhost:5000",
	EnvVars: []string{"DASHBOARD_URL"},
}

func newClient() *fetch.Client {
	return fetch.NewClient(fetch.WithTraceHeader(tracer.DefaultHeader))
}

func endpoint(c *cli.Context, path string) string {
	return strings.TrimRight(c.String("url"), "/") + path
}

func printStats(w io.Writer, s dashboard.Stats) error {
	revenue, err := format.Currency(s.Revenue)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Users:\t%d\n", s.Users)
	fmt.Fprintf(tw, "Active sessions:\t%d\n", s.ActiveSessions)
	fmt.Fprintf(tw, "Revenue:\t%s\n", revenue)
	fmt.Fprintf(tw, "Uptime:\t%s\n", s.Uptime)
	return tw.Flush()
}

func stats(c *cli.Context) error {
	s, err := fetch.Get[dashboard.Stats](c.Context, newClient(), endpoint(c, "/api/stats"))
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}

	return printStats(c.App.Writer, s)
}

func statsFlags() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "show the statistics of a running dashboard",
		Action: stats,
		Flags:  []cli.Flag{urlFlag},
	}
}

// usersQuery builds the search document sent to /api/users.
func usersQuery(roles []string, limit int) (string, error) {
	search := qparams.SearchRequest{
		OrderBy: []qparams.OrderClause{{Field: "id", Direction: qparams.OrderAsc}},
	}

	if len(roles) > 0 {
		search.Groups = &qparams.FilterGroup{
			Op: qparams.OrOperator,
			Filters: utility.Map(roles, func(role string) qparams.Filter {
				return qparams.Filter{Field: "role", Op: qparams.EqualsOperator, Value: role}
			}),
		}
	}

	if limit > 0 {
		search.Limit = utility.Ptr(limit)
	}

	raw, err := json.Marshal(search)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func printUsers(w io.Writer, users []dashboard.User) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	return tw.Flush()
}

func users(c *cli.Context) error {
	q, err := usersQuery(c.StringSlice("role"), c.Int("limit"))
	if err != nil {
		return err
	}

	list, err := fetch.Get[[]dashboard.User](c.Context, newClient(), endpoint(c, "/api/users?q="+url.QueryEscape(q)))
	if err != nil {
		return fmt.Errorf("fetch users: %w", err)
	}

	return printUsers(c.App.Writer, list)
}

func usersFlags() *cli.Command {
	return &cli.Command{
		Name:   "users",
		Usage:  "list the users of a running dashboard",
		Action: users,
		Flags: []cli.Flag{
			urlFlag,
			&cli.StringSliceFlag{
				Name:    "role",
				Aliases: []string{"r"},
				Usage:   "only show users with this role (repeatable)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "maximum number of users to list",
			},
		},
	}
}
