package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/webworld/internal/wiki"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Build a world and publish its colour map to a MediaWiki",
	Long: `Build a world, log in to the wiki with a bot password, write the page
and upload the colour map it embeds.

Credentials are best passed through WEBWORLD_WIKI_USERNAME and
WEBWORLD_WIKI_PASSWORD or the config file.`,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().String("api-url", "", "MediaWiki api.php URL")
	publishCmd.Flags().String("username", "", "Bot user name")
	publishCmd.Flags().String("password", "", "Bot password")
	publishCmd.Flags().String("title", wiki.WorldTitle, "Page title")
	publishCmd.Flags().String("summary", wiki.WorldSummary, "Edit summary")
	publishCmd.Flags().String("filename", wiki.WorldFilename, "Wiki file name of the colour map")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"wiki.api_url", "api-url"},
		{"wiki.username", "username"},
		{"wiki.password", "password"},
		{"wiki.title", "title"},
		{"wiki.summary", "summary"},
		{"wiki.filename", "filename"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, publishCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runPublish(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	client, err := wiki.New(wiki.Config{
		APIURL:   viper.GetString("wiki.api_url"),
		Username: viper.GetString("wiki.username"),
		Password: viper.GetString("wiki.password"),
	}, logger)
	if err != nil {
		return err
	}

	w, err := buildWorld()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	err = wiki.CreateWorldPage(ctx, client, w, wiki.WorldPageOptions{
		Title:    viper.GetString("wiki.title"),
		Summary:  viper.GetString("wiki.summary"),
		Filename: viper.GetString("wiki.filename"),
		Render:   loadRenderOptions(),
	})
	if err != nil {
		return err
	}

	logger.Info("Published world", "title", viper.GetString("wiki.title"), "api", viper.GetString("wiki.api_url"))
	return nil
}
