package cmd

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/samber/lo"
	"github.com/sceneplay/sceneplay/auth"
	"github.com/sceneplay/sceneplay/color"
	"github.com/sceneplay/sceneplay/icon"
	"github.com/sceneplay/sceneplay/key"
	"github.com/sceneplay/sceneplay/open"
	"github.com/sceneplay/sceneplay/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().Bool("handy", false, "Store the Handy connection key instead of the Stash API key")

	loginCmd.AddCommand(logoutCmd)
	logoutCmd.Flags().Bool("handy", false, "Remove the Handy connection key instead of the Stash API key")
}

// loginCmd stores credentials in the system keyring.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the Stash API key or the Handy connection key in the system keyring",
	Long: `Prompt for a secret and keep it in the system keyring.
Without flags the Stash API key is stored. It can be generated in Stash under Settings > Security.`,
	Run: func(cmd *cobra.Command, args []string) {
		credential, what := auth.StashAPIKey, "Stash API key"
		if lo.Must(cmd.Flags().GetBool("handy")) {
			credential, what = auth.HandyConnection, "Handy connection key"
		}

		if credential == auth.StashAPIKey {
			offerSecuritySettings()
		}

		var secret string
		handleErr(survey.AskOne(&survey.Password{
			Message: what + ":",
		}, &secret, survey.WithValidator(survey.Required)))

		handleErr(auth.Set(credential, secret))
		fmt.Printf("%s %s saved\n", style.Fg(color.Green)(icon.Get(icon.Success)), what)
	},
}

// logoutCmd removes stored credentials.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove a stored credential from the system keyring",
	Run: func(cmd *cobra.Command, args []string) {
		credential, what := auth.StashAPIKey, "Stash API key"
		if lo.Must(cmd.Flags().GetBool("handy")) {
			credential, what = auth.HandyConnection, "Handy connection key"
		}

		handleErr(auth.Delete(credential))
		fmt.Printf("%s %s removed\n", style.Fg(color.Green)(icon.Get(icon.Success)), what)
	},
}

func offerSecuritySettings() {
	page, err := open.SecuritySettings(viper.GetString(key.StashURL))
	if err != nil {
		return
	}

	var openInBrowser bool
	err = survey.AskOne(&survey.Confirm{
		Message: "Open the Stash security settings to generate a key?",
		Default: false,
	}, &openInBrowser)
	if err == nil && openInBrowser {
		err = open.Start(page)
	}

	if err != nil || !openInBrowser {
		fmt.Println("API keys are generated at:")
		fmt.Println(style.Faint(page))
	}
}
