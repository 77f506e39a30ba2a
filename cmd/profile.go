package cmd

import (
	"fmt"
	"text/tabwriter"

	"selectree/pkg/profile"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saved selections",
}

var profileSaveQuery string

func withStore(fn func(cmd *cobra.Command, store profile.Store, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := state.openProfiles()
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(cmd, store, args)
	}
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  cobra.NoArgs,
	RunE: withStore(func(cmd *cobra.Command, store profile.Store, _ []string) error {
		list, err := store.List()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, p := range list {
			fmt.Fprintf(w, "%s\t%d paths\t%s\n", p.Name, len(p.Paths), p.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	}),
}

var profileShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print the paths of a profile",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(cmd *cobra.Command, store profile.Store, args []string) error {
		p, err := store.Load(args[0])
		if err != nil {
			return err
		}
		for _, path := range p.Paths {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		return nil
	}),
}

var profileSaveCmd = &cobra.Command{
	Use:   "save NAME [PATH...]",
	Short: "Save a profile from paths, a query, or everything eligible",
	Long: `Save a profile. With PATHs (relative to the root) those are stored as given.
Otherwise the selection is built like 'run' does: --query selects matching
files, and no query selects every eligible file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: withStore(func(cmd *cobra.Command, store profile.Store, args []string) error {
		name, paths := args[0], args[1:]
		p := profile.Profile{Name: name, Paths: paths}

		if len(paths) == 0 {
			engine, err := state.newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			if profileSaveQuery != "" {
				engine.SelectAllMatching(profileSaveQuery)
			} else {
				engine.SelectAll()
			}
			if p, err = profile.Capture(name, engine); err != nil {
				return err
			}
		}

		if err := store.Save(p); err != nil {
			return err
		}
		saved, err := store.Load(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved profile %q with %d paths\n", saved.Name, len(saved.Paths))
		return nil
	}),
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(cmd *cobra.Command, store profile.Store, args []string) error {
		return store.Delete(args[0])
	}),
}

var profileRenameCmd = &cobra.Command{
	Use:   "rename OLD NEW",
	Short: "Rename a profile",
	Args:  cobra.ExactArgs(2),
	RunE: withStore(func(cmd *cobra.Command, store profile.Store, args []string) error {
		return store.Rename(args[0], args[1])
	}),
}

func init() {
	profileSaveCmd.Flags().StringVarP(&profileSaveQuery, "query", "q", "", "save files matching a search query")
	profileCmd.AddCommand(profileListCmd, profileShowCmd, profileSaveCmd, profileDeleteCmd, profileRenameCmd)
	RootCmd.AddCommand(profileCmd)
}
