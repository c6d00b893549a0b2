package main

import (
	"fmt"

	"github.com/spf13/cobra"

	appcontract "github.com/bryanwahyu/compliance-copilot/internal/application/contract"
)

func newExtractCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Extract contract text from a PDF, DOCX or text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, mimeType, data, err := readDocument(args[0])
			if err != nil {
				return err
			}
			res, err := (&appcontract.Service{Log: log}).Extract(name, mimeType, data)
			if err != nil {
				return err
			}
			if raw {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Text)
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&raw, "text", false, "print only the extracted text")
	return cmd
}
