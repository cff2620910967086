package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mixcore/sdk-go/query"
)

// Tables lists the table definitions visible to the session.
func (a *App) Tables(ctx context.Context) error {
	tables, err := a.client.Database.ListDatabases(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	for _, table := range tables {
		if name, ok := table["systemName"].(string); ok {
			fmt.Fprintln(a.out, name)
		}
	}
	fmt.Fprintf(a.out, "%d table(s)\n", len(tables))
	return nil
}

// List prints rows from a table: list <table> [take].
func (a *App) List(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: list <table> [take]")
		return nil
	}
	q := query.New().Take(10)
	if len(args) > 1 {
		take, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(a.out, "invalid take %q\n", args[1])
			return nil
		}
		q.Take(take)
	}

	result, err := a.client.GetData(ctx, args[0], q)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	for _, item := range result.Items {
		a.printRecord(item)
	}
	fmt.Fprintf(a.out, "%d row(s)\n", len(result.Items))
	return nil
}

// Get prints a single row: get <table> <id>.
func (a *App) Get(ctx context.Context, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(a.out, "Usage: get <table> <id>")
		return nil
	}
	record, err := a.client.GetDataByID(ctx, args[0], args[1])
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	a.printRecord(record)
	return nil
}

// Count prints the number of rows in a table: count <table>.
func (a *App) Count(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: count <table>")
		return nil
	}
	count, err := a.client.Database.CountData(ctx, args[0], nil)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	fmt.Fprintf(a.out, "%d\n", count)
	return nil
}

// Search runs a keyword search: search <table> <keyword>.
func (a *App) Search(ctx context.Context, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(a.out, "Usage: search <table> <keyword>")
		return nil
	}
	result, err := a.client.Database.SearchData(ctx, args[0], args[1], query.New().Take(10))
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	for _, item := range result.Items {
		a.printRecord(item)
	}
	fmt.Fprintf(a.out, "%d match(es)\n", len(result.Items))
	return nil
}

func (a *App) printRecord(record any) {
	encoded, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		fmt.Fprintf(a.out, "%v\n", record)
		return
	}
	fmt.Fprintln(a.out, string(encoded))
}
