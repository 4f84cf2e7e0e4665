// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gwlib/tweetindex/internal/esindex"
	"github.com/gwlib/tweetindex/internal/query"
	"github.com/gwlib/tweetindex/pkg/types"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the tweet index",
	Long: `Query searches the tweet index. All given criteria are ANDed; multiple
values within --users, --mentions, or --hashtags are ORed. An empty query
matches every tweet.

Results are paged with --start (1-based) and --size unless --all streams the
complete result set. Output is human-readable by default; --csv writes
screen_name,text,created_at rows to a file and --json prints the hits as JSON.
--file loads the query parameters from a YAML or JSON file instead of flags.`,
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	params, err := paramsFromFlags(cmd)
	if err != nil {
		return err
	}

	rawStart, _ := cmd.Flags().GetInt("start")
	rawSize, _ := cmd.Flags().GetInt("size")
	all, _ := cmd.Flags().GetBool("all")
	csvPath, _ := cmd.Flags().GetString("csv")
	asJSON, _ := cmd.Flags().GetBool("json")

	start, size, err := resolvePaging(rawStart, rawSize, cfg.Query.Size)
	if err != nil {
		return err
	}

	ix, err := esindex.New(cfg.Index, log)
	if err != nil {
		return err
	}
	if err := ix.WaitReady(ctx); err != nil {
		return err
	}

	if all {
		return streamAll(ctx, ix, params, csvPath, asJSON)
	}

	res, err := ix.Search(ctx, params, start-1, size)
	if err != nil {
		return err
	}

	switch {
	case csvPath != "":
		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", csvPath, err)
		}
		defer f.Close()
		if err := query.WriteCSV(f, res.Tweets); err != nil {
			return err
		}
		fmt.Printf("Wrote %d rows to %s\n", len(res.Tweets), csvPath)
	case asJSON:
		return query.WriteJSON(os.Stdout, res.Tweets)
	default:
		query.WriteText(os.Stdout, res.Tweets)
		query.WriteSummary(os.Stdout, res.Total)
	}
	return nil
}

// resolvePaging validates the 1-based --start and applies the configured
// default page size when --size is unset.
func resolvePaging(start, size, defaultSize int) (int, int, error) {
	if start < 1 {
		return 0, 0, fmt.Errorf("--start is 1-based, got %d", start)
	}
	if size <= 0 {
		size = defaultSize
	}
	return start, size, nil
}

// streamAll scrolls the complete result set, writing each hit straight to
// the output so the run's memory use does not grow with the result count.
// --start and --size do not apply here.
func streamAll(ctx context.Context, ix *esindex.Index, params query.Params, csvPath string, asJSON bool) error {
	var total int64

	switch {
	case csvPath != "":
		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", csvPath, err)
		}
		defer f.Close()
		cw := query.NewCSVWriter(f)
		if err := ix.ScrollAll(ctx, params, func(t types.TweetDoc) error {
			total++
			return cw.Write(t)
		}); err != nil {
			return err
		}
		if err := cw.Flush(); err != nil {
			return err
		}
		fmt.Printf("Wrote %d rows to %s\n", total, csvPath)
	case asJSON:
		js := query.NewJSONStream(os.Stdout)
		if err := ix.ScrollAll(ctx, params, js.Write); err != nil {
			return err
		}
		return js.Close()
	default:
		if err := ix.ScrollAll(ctx, params, func(t types.TweetDoc) error {
			total++
			query.WriteTweet(os.Stdout, t)
			return nil
		}); err != nil {
			return err
		}
		query.WriteSummary(os.Stdout, total)
	}
	return nil
}

// paramsFromFlags builds the query parameters, preferring --file when given.
func paramsFromFlags(cmd *cobra.Command) (query.Params, error) {
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		return query.LoadFile(path)
	}

	text, _ := cmd.Flags().GetString("text")
	users, _ := cmd.Flags().GetStringSlice("users")
	mentions, _ := cmd.Flags().GetStringSlice("mentions")
	hashtags, _ := cmd.Flags().GetStringSlice("hashtags")

	p := query.Params{
		Text:     text,
		Users:    users,
		Mentions: mentions,
		Hashtags: hashtags,
	}

	var err error
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		if p.DateFrom, err = query.ParseDate(from); err != nil {
			return query.Params{}, err
		}
	}
	if to, _ := cmd.Flags().GetString("to"); to != "" {
		if p.DateTo, err = query.ParseDate(to); err != nil {
			return query.Params{}, err
		}
	}
	return p, nil
}

func init() {
	queryCmd.Flags().String("text", "", "tweets containing this text")
	queryCmd.Flags().String("from", "", "tweets on or after this date")
	queryCmd.Flags().String("to", "", "tweets on or before this date")
	queryCmd.Flags().StringSlice("users", nil, "tweets from these users (ORed, omit @)")
	queryCmd.Flags().StringSlice("mentions", nil, "tweets mentioning these users (ORed, omit @)")
	queryCmd.Flags().StringSlice("hashtags", nil, "tweets with these hashtags (ORed, omit #)")
	queryCmd.Flags().Int("start", 1, "first result to return, 1-based")
	queryCmd.Flags().Int("size", 0, "number of results to return (default from config)")
	queryCmd.Flags().Bool("all", false, "return all results, overrides --start and --size")
	queryCmd.Flags().String("csv", "", "write results to this CSV file")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	queryCmd.Flags().String("file", "", "load query parameters from a YAML or JSON file")

	rootCmd.AddCommand(queryCmd)
}
