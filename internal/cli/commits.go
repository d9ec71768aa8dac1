package cli

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <asset>",
		Short: "Show the commit history of an asset, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var params map[string]string
			if limit > 0 {
				params = map[string]string{"limit": strconv.Itoa(limit)}
			}
			body, err := client().Get("/assets/"+args[0]+"/history", params)
			if err != nil {
				return err
			}
			return printResponse(cmd, body)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of commits")
	return cmd
}

func newCommitsCmd() *cobra.Command {
	var asset, author string
	var limit int
	cmd := &cobra.Command{
		Use:   "commits",
		Short: "List commits across assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]string{}
			if asset != "" {
				params["asset"] = asset
			}
			if author != "" {
				params["author"] = author
			}
			if limit > 0 {
				params["limit"] = strconv.Itoa(limit)
			}
			body, err := client().Get("/commits", params)
			if err != nil {
				return err
			}
			return printResponse(cmd, body)
		},
	}
	cmd.Flags().StringVar(&asset, "asset", "", "Only commits of this asset")
	cmd.Flags().StringVarP(&author, "author", "a", "", "Only commits by this author")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of commits")
	return cmd
}

func newCommitCmd() *cobra.Command {
	var files bool
	cmd := &cobra.Command{
		Use:   "commit <id>",
		Short: "Show one commit, or its file manifest with --files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCommitID(args[0])
			if err != nil {
				return err
			}
			p := "/commits/" + id
			if files {
				p += "/files"
			}
			body, err := client().Get(p, nil)
			if err != nil {
				return err
			}
			return printResponse(cmd, body)
		},
	}
	cmd.Flags().BoolVar(&files, "files", false, "Show the file manifest")
	return cmd
}

func newApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Mark a commit as approved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCommitID(args[0])
			if err != nil {
				return err
			}
			body, _, err := client().DoRequest(RequestOptions{Method: http.MethodPost, Path: "/commits/" + id + "/approve"})
			if err != nil {
				return err
			}
			return printResponse(cmd, body)
		},
	}
}

func parseCommitID(s string) (string, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return "", fmt.Errorf("invalid commit id: %s", s)
	}
	return strconv.FormatInt(id, 10), nil
}

// splitRef separates a server relative reference into its path and query.
func splitRef(ref string) (string, map[string]string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", nil, fmt.Errorf("invalid reference %q: %v", ref, err)
	}
	query := map[string]string{}
	for k, v := range u.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	return u.Path, query, nil
}
