package cli

import (
	"context"
	"errors"

	"github.com/hotelbey/bey/http/common"
	"github.com/spf13/cobra"
)

func newProcessCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "process",
		Short:       "Start processes",
		RunE:        cli.help,
		Annotations: map[string]string{noEngineRequired: ""},
	}

	c.AddCommand(newProcessStartCmd(cli))

	return &c
}

func newProcessStartCmd(cli *Cli) *cobra.Command {
	var (
		key       string
		variables variablesValue

		req common.StartProcessReq
	)

	c := cobra.Command{
		Use:   "start",
		Short: "Start the latest version of a process definition, identified by its key",
		Long: `Start the latest version of a process definition, identified by its key.

The reservation process is started with the guest's data, e.g.:

  bey process start --key hotel-reservation \
    --variable first_name=Jane --variable last_name=Doe --variable email=jane@example.org \
    --variable check_in=2026-11-01 --variable check_out=2026-11-04 --variable guests=2`,
		RunE: func(c *cobra.Command, _ []string) error {
			starter, ok := cli.e.(processStarter)
			if !ok {
				return errors.New("engine does not support starting processes")
			}

			v, err := mapVariables(variables)
			if err != nil {
				return err
			}

			req.Variables = v

			processInstance, err := starter.StartProcess(context.Background(), key, req)
			if err != nil {
				return err
			}

			c.Println(processInstance.Id)
			return nil
		},
	}

	c.Flags().StringVar(&key, "key", "", "Key of the process definition")

	c.Flags().StringVar(&req.BusinessKey, "business-key", "", "Optional business key")
	c.Flags().Var(&variables, "variable", "Process variable - the value is parsed as JSON, if possible")

	c.MarkFlagRequired("key")

	return &c
}
