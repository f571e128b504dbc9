package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cliossg/sitesmith/internal/feat/sites"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a site from local html, css and js files",
	Long: `Publishes the given fragments under a slug, exactly like POST /api/sites.
Republishing an existing slug replaces it.`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().String("slug", "", "site slug (random when empty)")
	publishCmd.Flags().String("title", "", "site title")
	publishCmd.Flags().String("html", "", "file with the HTML body fragment")
	publishCmd.Flags().String("css", "", "file with the stylesheet")
	publishCmd.Flags().String("js", "", "file with the script")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	req := sites.PublishRequest{}
	req.Slug, _ = cmd.Flags().GetString("slug")
	req.Title, _ = cmd.Flags().GetString("title")

	var err error
	if req.HTML, err = readFragment(cmd, "html"); err != nil {
		return err
	}
	if req.CSS, err = readFragment(cmd, "css"); err != nil {
		return err
	}
	if req.JS, err = readFragment(cmd, "js"); err != nil {
		return err
	}

	svc, stop, err := startSitesService(cmd)
	if err != nil {
		return err
	}
	defer stop()

	res, err := svc.Publish(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", res.Slug, res.URL)
	return nil
}

func readFragment(cmd *cobra.Command, flag string) (string, error) {
	path, _ := cmd.Flags().GetString(flag)
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading --%s: %w", flag, err)
	}
	return string(data), nil
}
