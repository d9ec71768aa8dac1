package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tansive/assetvault/pkg/api"
)

func newListCmd() *cobra.Command {
	var q api.ListAssetsReq
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets",
		Example: `  assetctl list --search apple --sort updated
  assetctl list --author js123 --checked-in`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]string{}
			if q.Search != "" {
				params["search"] = q.Search
			}
			if q.Author != "" {
				params["author"] = q.Author
			}
			if q.CheckedInOnly {
				params["checkedInOnly"] = "true"
			}
			if q.SortBy != "" {
				params["sortBy"] = q.SortBy
			}
			body, err := client().Get("/assets", params)
			if err != nil {
				return err
			}
			return printResponse(cmd, body)
		},
	}
	cmd.Flags().StringVarP(&q.Search, "search", "s", "", "Match asset names and keywords")
	cmd.Flags().StringVarP(&q.Author, "author", "a", "", "Match the asset creator")
	cmd.Flags().BoolVar(&q.CheckedInOnly, "checked-in", false, "Only list assets that are not checked out")
	cmd.Flags().StringVar(&q.SortBy, "sort", "", "Sort by name, author, updated or created")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <asset>",
		Short: "Show one asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := client().Get("/assets/"+args[0], nil)
			if err != nil {
				return err
			}
			return printResponse(cmd, body)
		},
	}
}

// uploadFiles stages each local file and returns the name to locator manifest.
func uploadFiles(c *HTTPClient, asset string, paths []string) (map[string]string, error) {
	files := make(map[string]string, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		if _, dup := files[name]; dup {
			return nil, fmt.Errorf("file %s given more than once", name)
		}
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("unable to open %s: %w", p, err)
		}
		locator, err := c.Upload(asset, name, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("upload of %s failed: %w", name, err)
		}
		files[name] = locator
	}
	return files, nil
}

func newRegisterCmd() *cobra.Command {
	var (
		paths    []string
		keywords []string
		notes    string
	)
	cmd := &cobra.Command{
		Use:     "register <asset>",
		Short:   "Register a new asset from local files",
		Example: `  assetctl register redApple -f redApple.usda -f thumbnail.png -k fruit`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(paths) == 0 {
				return fmt.Errorf("at least one --file is required")
			}
			c := client()
			files, err := uploadFiles(c, args[0], paths)
			if err != nil {
				return err
			}
			body, _, err := c.PostJSON("/assets", api.RegisterAssetReq{
				Name:     args[0],
				Creator:  GetConfig().User,
				Keywords: keywords,
				Notes:    notes,
				Files:    files,
			})
			if err != nil {
				return err
			}
			return printResponse(cmd, body)
		},
	}
	cmd.Flags().StringArrayVarP(&paths, "file", "f", nil, "Local file to include; repeatable")
	cmd.Flags().StringSliceVarP(&keywords, "keyword", "k", nil, "Keyword; repeatable")
	cmd.Flags().StringVarP(&notes, "notes", "m", "", "Notes for the initial version")
	return cmd
}

func newCheckoutCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "checkout <asset>",
		Short: "Lock an asset for editing",
		Long: `Lock an asset for editing. With --output the latest version is
downloaded as a zip archive once the lock is held.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client()
			body, _, err := c.PostJSON("/assets/"+args[0]+"/checkout", api.CheckoutReq{Requester: GetConfig().User})
			if err != nil {
				return err
			}
			if output != "" {
				var rsp api.CheckoutRsp
				if err := json.Unmarshal(body, &rsp); err != nil {
					return fmt.Errorf("failed to parse response: %v", err)
				}
				if err := downloadTo(c, rsp.DownloadRef, nil, output); err != nil {
					return err
				}
			}
			return printResponse(cmd, body)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the checked out version to this zip file")
	return cmd
}

func newCheckinCmd() *cobra.Command {
	var (
		paths []string
		notes string
		bump  string
	)
	cmd := &cobra.Command{
		Use:     "checkin <asset>",
		Short:   "Record a new version of a checked out asset and release the lock",
		Example: `  assetctl checkin redApple -m "shinier" --bump minor -f redApple.usda -f thumbnail.png`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if notes == "" {
				return fmt.Errorf("--notes is required")
			}
			if len(paths) == 0 {
				return fmt.Errorf("at least one --file is required")
			}
			c := client()
			files, err := uploadFiles(c, args[0], paths)
			if err != nil {
				return err
			}
			body, _, err := c.PostJSON("/assets/"+args[0]+"/checkin", api.CheckinReq{
				Requester:   GetConfig().User,
				Notes:       notes,
				VersionBump: bump,
				Files:       files,
			})
			if err != nil {
				return err
			}
			return printResponse(cmd, body)
		},
	}
	cmd.Flags().StringArrayVarP(&paths, "file", "f", nil, "Local file to include; repeatable")
	cmd.Flags().StringVarP(&notes, "notes", "m", "", "Notes describing the change")
	cmd.Flags().StringVar(&bump, "bump", "", "Version bump: major, minor or patch (default minor)")
	return cmd
}

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <asset>",
		Short: "Release a check-out without recording a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _, err := client().PostJSON("/assets/"+args[0]+"/cancel-checkout", api.CancelCheckoutReq{Requester: GetConfig().User})
			if err != nil {
				return err
			}
			return printResponse(cmd, body)
		},
	}
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <asset> <file>",
		Short: "Stage a single file and print its locator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := uploadFiles(client(), args[0], args[1:])
			if err != nil {
				return err
			}
			if jsonOutput {
				printJSON(cmd.OutOrStdout(), files)
				return nil
			}
			for name, locator := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, locator)
			}
			return nil
		},
	}
}

func newDownloadCmd() *cobra.Command {
	var (
		commit int64
		output string
	)
	cmd := &cobra.Command{
		Use:   "download <asset>",
		Short: "Download a version of an asset as a zip archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var params map[string]string
			if commit > 0 {
				params = map[string]string{"commit": strconv.FormatInt(commit, 10)}
			}
			if output == "" {
				output = args[0] + ".zip"
			}
			if err := downloadTo(client(), "/assets/"+args[0]+"/download", params, output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", output)
			return nil
		},
	}
	cmd.Flags().Int64Var(&commit, "commit", 0, "Commit id to download; latest when omitted")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <asset>.zip)")
	return cmd
}

// downloadTo streams ref into file. ref may carry its own query string.
func downloadTo(c *HTTPClient, ref string, params map[string]string, file string) error {
	p, query, err := splitRef(ref)
	if err != nil {
		return err
	}
	for k, v := range params {
		query[k] = v
	}
	resp, err := c.Do(RequestOptions{Method: http.MethodGet, Path: p, QueryParams: query})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(file), ".download-*")
	if err != nil {
		return fmt.Errorf("unable to create %s: %w", file, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("download interrupted: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), file)
}
