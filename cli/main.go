package main

import (
	"fmt"
	"os"

	"github.com/codd-lang/codd"
	"github.com/codd-lang/codd/repl"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/ini.v1"
)

// config carries the defaults read from codd.ini. Command-line flags
// override whatever the file sets.
type config struct {
	prompt    string
	autoload  bool
	workspace string
}

func readConfig() config {
	c := config{prompt: repl.DefaultPrompt}
	f, err := ini.Load("codd.ini")
	if err != nil {
		return c
	}
	s := f.Section("repl")
	if k := s.Key("prompt"); k.String() != "" {
		c.prompt = k.String()
	}
	c.autoload, _ = s.Key("autoload").Bool()
	c.workspace = s.Key("workspace").String()
	return c
}

func prepare(cmd *cobra.Command, cfg config) (*codd.Engine, error) {
	e := codd.NewEngine()
	load, _ := cmd.Flags().GetBool("load")
	if !cmd.Flags().Changed("load") {
		load = load || cfg.autoload
	}
	if load {
		e.LoadSample()
	}
	ws, _ := cmd.Flags().GetString("workspace")
	if ws == "" {
		ws = cfg.workspace
	}
	if ws != "" {
		if err := codd.LoadWorkspaceFile(e.Env(), ws); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func main() {
	cfg := readConfig()

	root := &cobra.Command{
		Use:          "codd",
		Short:        "A tiny relational algebra interpreter",
		SilenceUsage: true,
	}

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := prepare(cmd, cfg)
			if err != nil {
				return err
			}
			r := repl.New(e, os.Stdin, os.Stdout)
			r.Prompt = cfg.prompt
			return errors.Wrap(r.Run(), "reading input")
		},
	}
	replCmd.Flags().Bool("load", false, "load the sample relations")
	replCmd.Flags().String("workspace", "", "workspace file to load")

	evalCmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate one expression and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := prepare(cmd, cfg)
			if err != nil {
				return err
			}
			result, err := e.Run(args[0])
			if err != nil {
				return err
			}
			fmt.Println(codd.FormatResult(result))
			return nil
		},
	}
	evalCmd.Flags().Bool("load", true, "load the sample relations")
	evalCmd.Flags().String("workspace", "", "workspace file to load")

	root.AddCommand(replCmd, evalCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
