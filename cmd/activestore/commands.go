package main

import (
	"fmt"
	"sort"

	"github.com/lychee-technology/activestore"
	"github.com/spf13/cobra"
)

var (
	flagQuery      []string
	flagSet        []string
	flagInvalidate bool
)

func init() {
	indexCmd.Flags().StringArrayVarP(&flagQuery, "query", "q", nil, "query parameter key=value (repeatable)")
	indexCmd.Flags().BoolVar(&flagInvalidate, "invalidate", false, "clear the cached collection before loading")
	createCmd.Flags().StringArrayVar(&flagSet, "set", nil, "attribute key=value (repeatable)")
	updateCmd.Flags().StringArrayVar(&flagSet, "set", nil, "attribute key=value (repeatable)")
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List registered models and their routes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		type modelOutput struct {
			Name       string            `json:"name"`
			PrimaryKey string            `json:"primaryKey"`
			Singleton  bool              `json:"singleton"`
			Routes     map[string]string `json:"routes"`
		}

		names := make([]string, 0)
		for name := range client.State() {
			names = append(names, name)
		}
		sort.Strings(names)

		out := make([]modelOutput, 0, len(names))
		for _, name := range names {
			repo, err := client.Model(name)
			if err != nil {
				return err
			}
			meta := repo.Metadata()
			routes := make(map[string]string, len(meta.Routes))
			for action, tpl := range meta.Routes {
				routes[string(action)] = tpl
			}
			out = append(out, modelOutput{
				Name:       meta.Name,
				PrimaryKey: meta.PrimaryKey,
				Singleton:  meta.Singleton,
				Routes:     routes,
			})
		}
		return writeJSON(cmd.OutOrStdout(), out)
	},
}

var indexCmd = &cobra.Command{
	Use:   "index <Model>",
	Short: "Load the collection of a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := client.Model(args[0])
		if err != nil {
			return err
		}
		query, err := parseAssignments(flagQuery)
		if err != nil {
			return err
		}
		var opts []activestore.IndexOption
		if flagInvalidate {
			opts = append(opts, activestore.WithInvalidateCache())
		}

		instances, err := repo.All(cmd.Context(), query, opts...)
		if err != nil {
			writeFailure(cmd.OutOrStdout(), err)
			return err
		}
		return writeJSON(cmd.OutOrStdout(), renderInstances(instances))
	},
}

var showCmd = &cobra.Command{
	Use:   "show <Model> [id]",
	Short: "Load one member, or the singleton when no id is given",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := client.Model(args[0])
		if err != nil {
			return err
		}

		var inst *activestore.Instance
		if len(args) == 2 {
			inst, err = repo.Find(cmd.Context(), parseID(args[1]))
		} else {
			inst, err = repo.Fetch(cmd.Context())
		}
		if err != nil {
			writeFailure(cmd.OutOrStdout(), err)
			return err
		}
		return writeJSON(cmd.OutOrStdout(), renderInstance(inst))
	},
}

var createCmd = &cobra.Command{
	Use:   "create <Model>",
	Short: "Create a member from --set attributes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := client.Model(args[0])
		if err != nil {
			return err
		}
		attrs, err := parseAssignments(flagSet)
		if err != nil {
			return err
		}
		inst, err := repo.New(attrs)
		if err != nil {
			return err
		}

		saved, err := repo.Save(cmd.Context(), inst)
		if err != nil {
			writeFailure(cmd.OutOrStdout(), err)
			return err
		}
		return writeJSON(cmd.OutOrStdout(), renderInstance(saved))
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <Model> [id]",
	Short: "Load a member, apply --set attributes and save the changes",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := client.Model(args[0])
		if err != nil {
			return err
		}
		attrs, err := parseAssignments(flagSet)
		if err != nil {
			return err
		}
		if len(attrs) == 0 {
			return fmt.Errorf("update needs at least one --set attribute")
		}

		var inst *activestore.Instance
		if len(args) == 2 {
			inst, err = repo.Find(cmd.Context(), parseID(args[1]))
		} else {
			inst, err = repo.Fetch(cmd.Context())
		}
		if err != nil {
			writeFailure(cmd.OutOrStdout(), err)
			return err
		}
		for name, value := range attrs {
			if err := inst.Set(name, value); err != nil {
				return err
			}
		}

		saved, err := repo.Save(cmd.Context(), inst)
		if err != nil {
			writeFailure(cmd.OutOrStdout(), err)
			return err
		}
		return writeJSON(cmd.OutOrStdout(), renderInstance(saved))
	},
}

var destroyCmd = &cobra.Command{
	Use:   "destroy <Model> [id]",
	Short: "Delete a member, or reset the singleton when no id is given",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := client.Model(args[0])
		if err != nil {
			return err
		}
		meta := repo.Metadata()

		attrs := map[string]any{}
		if len(args) == 2 {
			attrs[meta.PrimaryKey] = parseID(args[1])
		} else if !meta.Singleton {
			return activestore.NewMissingKeyError(meta.Name, activestore.ActionDestroy)
		}

		future, err := client.Dispatch(cmd.Context(), activestore.StartAction(activestore.ActionDestroy, meta.Name, attrs))
		if err != nil {
			return err
		}
		res, err := future.Await(cmd.Context())
		if err != nil {
			writeFailure(cmd.OutOrStdout(), err)
			return err
		}
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"status": res.Request.Status,
			"body":   res.Body,
		})
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the store state, including any restored snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeJSON(cmd.OutOrStdout(), client.State())
	},
}
