package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprocketdb/sprocket/internal/definition"
	"github.com/sprocketdb/sprocket/internal/invocation"
)

func newProcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proc",
		Short: "Manage stored procedures",
		Long:  "Create, list, describe, execute, and drop script-backed stored procedures on a target.",
	}

	cmd.AddCommand(newProcCreateCmd())
	cmd.AddCommand(newProcListCmd())
	cmd.AddCommand(newProcDescribeCmd())
	cmd.AddCommand(newProcExecCmd())
	cmd.AddCommand(newProcExistsCmd())
	cmd.AddCommand(newProcDropCmd())

	return cmd
}

// ---------- proc create ----------

func newProcCreateCmd() *cobra.Command {
	var (
		targetName string
		scriptFile string
		script     string
		inputs     []string
		outputs    []string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Register a script as a stored procedure",
		Long: `Register a script as a stored procedure on a target. Parameter types are
posixct, numeric, character, integer, logical, raw, and dataframe; at most
one input may be a dataframe.`,
		Example: `  sprocket proc create scaleIt --target prod --file scale.R --input n=integer --input scale=numeric
  sprocket proc create summarize --target prod --file sum.R --input in_df=dataframe --output out_df=dataframe
  sprocket proc create hello --target prod --script 'print("hello")' --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcCreate(targetName, args[0], scriptFile, script, inputs, outputs, dryRun)
		},
	}

	cmd.Flags().StringVar(&targetName, "target", "", "Target to create the procedure on (required)")
	cmd.Flags().StringVarP(&scriptFile, "file", "f", "", "File containing the script body")
	cmd.Flags().StringVar(&script, "script", "", "Inline script body (alternative to --file)")
	cmd.Flags().StringArrayVar(&inputs, "input", nil, "Input parameter as name=type (repeatable)")
	cmd.Flags().StringArrayVar(&outputs, "output", nil, "Output parameter as name=type (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the generated SQL without installing")
	cmd.MarkFlagRequired("target")

	return cmd
}

func runProcCreate(targetName, name, scriptFile, script string, inputPairs, outputPairs []string, dryRun bool) error {
	if scriptFile == "" && script == "" {
		return fmt.Errorf("either --file or --script is required")
	}
	if scriptFile != "" && script != "" {
		return fmt.Errorf("--file and --script are mutually exclusive")
	}
	if scriptFile != "" {
		data, err := os.ReadFile(scriptFile)
		if err != nil {
			return fmt.Errorf("read script file: %w", err)
		}
		script = string(data)
	}

	inputs, err := parseKeyValuePairs(inputPairs)
	if err != nil {
		return fmt.Errorf("parse --input: %w", err)
	}
	outputs, err := parseKeyValuePairs(outputPairs)
	if err != nil {
		return fmt.Errorf("parse --output: %w", err)
	}

	store, err := openConfigStore()
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	mgr, client, tgt, err := managerFor(ctx, store, targetName)
	if err != nil {
		return err
	}
	defer client.Close()

	src := definition.Source{Language: tgt.Language, Body: script}
	generated, err := mgr.Create(ctx, name, src, inputs, outputs, dryRun)
	if err != nil {
		return fmt.Errorf("create procedure: %w", err)
	}

	if dryRun {
		fmt.Println(generated)
		return nil
	}

	fmt.Printf("Created procedure %q on target %q\n", name, targetName)
	return nil
}

// ---------- proc list ----------

func newProcListCmd() *cobra.Command {
	var (
		targetName string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored procedures on a target",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcList(targetName, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&targetName, "target", "", "Target to list procedures from (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.MarkFlagRequired("target")

	return cmd
}

func runProcList(targetName string, jsonOutput bool) error {
	store, err := openConfigStore()
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	mgr, client, _, err := managerFor(ctx, store, targetName)
	if err != nil {
		return err
	}
	defer client.Close()

	names, err := mgr.Reader().List(ctx)
	if err != nil {
		return fmt.Errorf("list procedures: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(names)
	}

	if len(names) == 0 {
		fmt.Println("No procedures found.")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

// ---------- proc describe ----------

func newProcDescribeCmd() *cobra.Command {
	var targetName string

	cmd := &cobra.Command{
		Use:     "describe <name>",
		Aliases: []string{"show"},
		Short:   "Show a procedure's declared parameters",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcDescribe(targetName, args[0])
		},
	}

	cmd.Flags().StringVar(&targetName, "target", "", "Target the procedure lives on (required)")
	cmd.MarkFlagRequired("target")

	return cmd
}

func runProcDescribe(targetName, name string) error {
	store, err := openConfigStore()
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	mgr, client, _, err := managerFor(ctx, store, targetName)
	if err != nil {
		return err
	}
	defer client.Close()

	md, err := mgr.Reader().Fetch(ctx, name)
	if err != nil {
		return fmt.Errorf("describe procedure: %w", err)
	}

	fmt.Printf("Procedure: %s\n", md.Name)
	fmt.Println("Inputs:")
	if len(md.InputParams) == 0 {
		fmt.Println("  (none)")
	}
	for _, p := range md.InputParams {
		fmt.Printf("  %-20s %s\n", invocation.PublicName(p.Name), p.TypeName)
	}
	fmt.Println("Outputs:")
	if len(md.OutputParams) == 0 {
		fmt.Println("  (none)")
	}
	for _, p := range md.OutputParams {
		fmt.Printf("  %-20s %s\n", invocation.PublicName(p.Name), p.TypeName)
	}
	if md.TableInputName != "" {
		fmt.Printf("Dataframe input: %s\n", md.TableInputName)
	}
	return nil
}

// ---------- proc exec ----------

func newProcExecCmd() *cobra.Command {
	var (
		targetName string
		argPairs   []string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "exec <name>",
		Short: "Execute a stored procedure with keyword arguments",
		Long: `Execute a stored procedure. Arguments are matched by name against the
procedure's declared parameters and reordered to the declared order before
binding; the set of names must match exactly.`,
		Example: `  sprocket proc exec scaleIt --target prod --arg n=5 --arg scale=1.5
  sprocket proc exec nightlyReport --target prod`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcExec(targetName, args[0], argPairs, dryRun)
		},
	}

	cmd.Flags().StringVar(&targetName, "target", "", "Target the procedure lives on (required)")
	cmd.Flags().StringArrayVar(&argPairs, "arg", nil, "Argument as name=value (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the invocation statement without executing")
	cmd.MarkFlagRequired("target")

	return cmd
}

func runProcExec(targetName, name string, argPairs []string, dryRun bool) error {
	rawArgs, err := parseKeyValuePairs(argPairs)
	if err != nil {
		return fmt.Errorf("parse --arg: %w", err)
	}

	var args map[string]interface{}
	if rawArgs != nil {
		args = make(map[string]interface{}, len(rawArgs))
		for k, v := range rawArgs {
			args[k] = coerceArgValue(v)
		}
	}

	store, err := openConfigStore()
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	mgr, client, _, err := managerFor(ctx, store, targetName)
	if err != nil {
		return err
	}
	defer client.Close()

	out, err := mgr.Execute(ctx, name, args, dryRun)
	if err != nil {
		return fmt.Errorf("execute procedure: %w", err)
	}

	if dryRun {
		fmt.Println(out.Statement)
		return nil
	}

	if len(out.Rows) == 0 {
		fmt.Println("OK (no result set)")
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Rows)
}

// ---------- proc exists ----------

func newProcExistsCmd() *cobra.Command {
	var targetName string

	cmd := &cobra.Command{
		Use:   "exists <name>",
		Short: "Check whether a procedure exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcExists(targetName, args[0])
		},
	}

	cmd.Flags().StringVar(&targetName, "target", "", "Target to check (required)")
	cmd.MarkFlagRequired("target")

	return cmd
}

func runProcExists(targetName, name string) error {
	store, err := openConfigStore()
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	mgr, client, _, err := managerFor(ctx, store, targetName)
	if err != nil {
		return err
	}
	defer client.Close()

	exists, _, err := mgr.Exists(ctx, name, false)
	if err != nil {
		return fmt.Errorf("check procedure: %w", err)
	}

	if exists {
		fmt.Printf("Procedure %q exists.\n", name)
	} else {
		fmt.Printf("Procedure %q does not exist.\n", name)
	}
	return nil
}

// ---------- proc drop ----------

func newProcDropCmd() *cobra.Command {
	var (
		targetName string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:     "drop <name>",
		Aliases: []string{"rm"},
		Short:   "Drop a stored procedure",
		Long:    "Drop a stored procedure from a target. Dropping a procedure that does not exist is a no-op.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcDrop(targetName, args[0], dryRun)
		},
	}

	cmd.Flags().StringVar(&targetName, "target", "", "Target the procedure lives on (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the drop statement without executing")
	cmd.MarkFlagRequired("target")

	return cmd
}

func runProcDrop(targetName, name string, dryRun bool) error {
	store, err := openConfigStore()
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	mgr, client, _, err := managerFor(ctx, store, targetName)
	if err != nil {
		return err
	}
	defer client.Close()

	dropped, stmt, err := mgr.Drop(ctx, name, dryRun)
	if err != nil {
		return fmt.Errorf("drop procedure: %w", err)
	}

	if dryRun {
		fmt.Println(stmt)
		return nil
	}

	if dropped {
		fmt.Printf("Dropped procedure %q\n", name)
	} else {
		fmt.Printf("Procedure %q does not exist, nothing to drop.\n", name)
	}
	return nil
}
