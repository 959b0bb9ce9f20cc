package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fullstackslife/guild-scout-reports/internal/model"
	"github.com/fullstackslife/guild-scout-reports/internal/store"
)

var (
	profileGuild string
	profileTier  string
	profileLimit int
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect contributor credibility profiles",
}

var profileShowCmd = &cobra.Command{
	Use:   "show <contributor-id>",
	Short: "Show one contributor's credibility profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		profile, err := st.GetProfile(ctx, args[0], profileGuild)
		if err != nil {
			return eris.Wrap(err, "get profile")
		}
		if profile == nil {
			return eris.Errorf("no profile for contributor %s (guild %q)", args[0], profileGuild)
		}

		return printJSON(profile)
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List credibility profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		profiles, err := st.ListProfiles(ctx, store.ProfileFilter{
			Guild: profileGuild,
			Tier:  model.ReliabilityTier(profileTier),
			Limit: profileLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list profiles")
		}

		return printJSON(profiles)
	},
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal output")
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	profileCmd.PersistentFlags().StringVar(&profileGuild, "guild", "", "guild scope (empty = global)")
	profileListCmd.Flags().StringVar(&profileTier, "tier", "", "filter by reliability tier")
	profileListCmd.Flags().IntVar(&profileLimit, "limit", 100, "max profiles to list")
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileListCmd)
	rootCmd.AddCommand(profileCmd)
}
